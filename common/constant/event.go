package constant

const (
	QueueStreamName = "club_registration_queue_stream"
)

const (
	AllWildcard    = "events.>"
	TicketWildcard = "events.ticket.>"
	EmailWildcard  = "events.email.>"

	SubjectTicketIssued = "events.ticket.issued"
	SubjectSendEmail    = "events.email.send"
)
