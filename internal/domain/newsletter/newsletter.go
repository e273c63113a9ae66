package newsletter

// Signups are not stored; they are handed to a notifier and forgotten.
type SignupRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}
