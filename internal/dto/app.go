package dto

import (
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type Screen string

const (
	ScreenLoading         Screen = "loading"
	ScreenConnectionError Screen = "connection-error"
	ScreenNeedsSetup      Screen = "needs-setup"
	ScreenReady           Screen = "ready"
	ScreenOfflineMode     Screen = "offline-mode"
	ScreenError           Screen = "error"
)

// AppView is the state machine as the UI sees it.
type AppView struct {
	Screen       Screen             `json:"screen"`
	UserID       string             `json:"userId,omitempty"`
	RetryCount   int                `json:"retryCount"`
	OfferOffline bool               `json:"offerOffline"`
	Error        string             `json:"error,omitempty"`
	Data         models.Snapshot    `json:"data"`
	Diagnostics  *ConfigDiagnostics `json:"diagnostics,omitempty"`
}

// ConfigDiagnostics says whether the remote store was configured, without leaking secrets.
type ConfigDiagnostics struct {
	HasProjectID   bool   `json:"hasProjectId"`
	HasAPIKey      bool   `json:"hasApiKey"`
	ProjectIDValid bool   `json:"projectIdValid"`
	ProjectID      string `json:"projectId"`
}
