package switcher

// NoticeLevel classifies a transient operator-facing message.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notifier surfaces transient, non-blocking messages (toast-style).
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// Navigator routes the operator to the re-authentication flow with the
// email field pre-filled.
type Navigator interface {
	ToLogin(prefillEmail string)
}

// Reloader forces a full reload of derived application state. Downstream
// UI, caches and role resolution all key off the active identity and must
// not retain state from the previous account after a switch.
type Reloader interface {
	Reload()
}

type noopNotifier struct{}

func (noopNotifier) Notify(NoticeLevel, string) {}

type noopNavigator struct{}

func (noopNavigator) ToLogin(string) {}

type noopReloader struct{}

func (noopReloader) Reload() {}
