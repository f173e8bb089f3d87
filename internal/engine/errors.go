package engine

// PreconditionError indicates the task's current status does not permit the
// requested operation. Retrying without a state change will fail again.
type PreconditionError struct {
	Reason string
}

func (e PreconditionError) Error() string { return e.Reason }

// UnauthorizedError indicates the acting user's role or ownership does not
// match the operation's requirement.
type UnauthorizedError struct {
	Reason string
}

func (e UnauthorizedError) Error() string { return e.Reason }

// ValidationError indicates missing or malformed input.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }
