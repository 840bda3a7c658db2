package api

type Image struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Revision string `json:"revision"`
	Snippet  string `json:"snippet"`
}
