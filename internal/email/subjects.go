package email

const (
	subjectAssignmentFmt = "Technician assigned to your appointment %s"
)
