package prediction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

// ErrModelUnavailable is returned for every request while no model artifact is loaded.
var ErrModelUnavailable = errors.New("model unavailable")

// PredictionError wraps a failure raised while evaluating the model.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string { return "prediction failed: " + e.Err.Error() }
func (e *PredictionError) Unwrap() error { return e.Err }

// TransportError is a failure to reach or understand the remote prediction service.
// It is distinct from a prediction-level error returned by a reachable service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("prediction service %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err came from the network path.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ErrorResponse converts err into the wire error payload.
func ErrorResponse(err error) messages.PredictionResponse {
	code := messages.CodePredictionFailed
	if errors.Is(err, ErrModelUnavailable) {
		code = messages.CodeModelUnavailable
	}
	return messages.PredictionResponse{Error: err.Error(), Code: code}
}

// FromResponse is the inverse of ErrorResponse for clients: it returns the result
// or rebuilds the typed error the server reported.
func FromResponse(resp messages.PredictionResponse) (messages.PredictionResult, error) {
	if resp.Error != "" || resp.Code != "" {
		switch resp.Code {
		case messages.CodeModelUnavailable:
			return messages.PredictionResult{}, ErrModelUnavailable
		default:
			msg := strings.TrimPrefix(resp.Error, "prediction failed: ")
			if msg == "" {
				msg = resp.Code
			}
			return messages.PredictionResult{}, &PredictionError{Err: errors.New(msg)}
		}
	}
	if resp.PredictionResult == nil {
		return messages.PredictionResult{}, &TransportError{Op: "decode", Err: errors.New("response carries neither result nor error")}
	}
	return *resp.PredictionResult, nil
}
