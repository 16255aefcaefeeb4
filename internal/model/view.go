package model

// ViewState is the per-frame UI state passed to render functions.
type ViewState struct {
	ActiveTab      int
	CardDismissed  bool
	ShowHelp       bool
	SettingsCursor int
	Loading        bool
	AutoRefresh    bool
}
