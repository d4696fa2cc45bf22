package code

var (
	Success       = NewSuccess(0, "success")
	SuccessCreate = NewSuccess(1, "created")
	SuccessUpdate = NewSuccess(2, "updated")
	SuccessDelete = NewSuccess(3, "deleted")

	ErrorServerInternal = NewError(10000, "internal server error")
	ErrorInvalidParams  = NewError(10001, "invalid request parameters")
	ErrorNotFound       = NewError(10002, "resource not found")

	ErrorJobNotFound      = NewError(20001, "job not found")
	ErrorJobRunning       = NewError(20002, "job is already running")
	ErrorJobInvalid       = NewError(20003, "job definition is invalid")
	ErrorRunNotFound      = NewError(20004, "run not found")
	ErrorHostNotFound     = NewError(20005, "host not found")
	ErrorAgentUnreachable = NewError(20006, "agent is unreachable")
)
