package facebook

// PostsResponse represents a Graph API page-posts response.
type PostsResponse struct {
	Data []PagePost `json:"data"`
}

type PagePost struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
	Place       *Place `json:"place"`
}

type Place struct {
	Name string `json:"name"`
}
