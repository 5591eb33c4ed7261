package prediction

import (
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type healthHandler struct {
	svc  *Service
	mqtt mqtt.Client
}

// NewHealthHandler always answers 200; the body tells whether a model is loaded
// and, when events are enabled, whether the broker connection is up.
func NewHealthHandler(svc *Service, broker mqtt.Client) http.Handler {
	return &healthHandler{svc: svc, mqtt: broker}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status        string `json:"status"`
		ModelLoaded   bool   `json:"model_loaded"`
		MQTTConnected *bool  `json:"mqtt_connected,omitempty"`
	}
	st := status{Status: "ok", ModelLoaded: h.svc.Ready()}
	if !st.ModelLoaded {
		st.Status = "degraded"
	}
	if h.mqtt != nil {
		c := h.mqtt.IsConnectionOpen()
		st.MQTTConnected = &c
	}
	writeJSON(w, http.StatusOK, st)
}

type readyHandler struct{ svc *Service }

// NewReadyHandler answers 503 until a model is loaded.
func NewReadyHandler(svc *Service) http.Handler { return &readyHandler{svc: svc} }

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.svc.Ready()
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, struct {
		Ready bool `json:"ready"`
	}{ready})
}
