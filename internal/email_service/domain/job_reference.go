package domain

// EmailJobRef is the queue payload shared by the enqueuing API and the worker:
// just the ID of a pre-created email record. It exists only on the wire
// between enqueue and acknowledgment. Unknown sibling fields are ignored.
type EmailJobRef struct {
	EmailID string `json:"email_id"`
}
