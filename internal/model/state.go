package model

// Phase is the lifecycle position of the session controller.
type Phase string

const (
	PhaseInitializing       Phase = "initializing"
	PhaseSessionFetched     Phase = "session_fetched"
	PhaseSessionFetchFailed Phase = "session_fetch_failed"
	PhaseProfileLoading     Phase = "profile_loading"
	PhaseReady              Phase = "ready"
	PhaseAuthenticating     Phase = "authenticating"
	PhaseSignedOut          Phase = "signed_out"
)

// State is an immutable snapshot of the controller as seen by consumers.
type State struct {
	Session *Session
	User    *User
	Profile *Profile
	Loading bool
	Phase   Phase
	Error   *AuthError
}

// Authenticated reports whether the snapshot carries a signed in user.
func (s State) Authenticated() bool {
	return s.Session != nil && s.User != nil
}

// NotificationLevel is the severity of a Notification.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyInfo    NotificationLevel = "info"
	NotifyError   NotificationLevel = "error"
)

// Notification is a toast-equivalent event emitted for the UI layer.
type Notification struct {
	Level   NotificationLevel
	Op      string
	Message string
}
