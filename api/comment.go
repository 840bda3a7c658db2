package api

// CommentCount is the badge value for a post. Count is null when the
// comment threads could not be searched.
type CommentCount struct {
	ID    string `json:"id"`
	Count *int   `json:"count"`
}
