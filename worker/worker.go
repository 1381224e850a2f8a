// Package worker serves dice analyses over NATS, for using dicebag as part
// of the backend for a server. Requests and responses are the analyzer's
// JSON wire format.
package worker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/dicebag/analyzer"
	"github.com/domino14/dicebag/config"
)

// DefaultChannel is the subject the worker subscribes to unless told
// otherwise.
const DefaultChannel = "dicebag.analyze"

type Worker struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
}

func NewWorker(cfg *config.Config) *Worker {
	return &Worker{cfg: cfg, analyzer: analyzer.NewAnalyzer(cfg)}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handle analyzes one raw request and always produces a JSON payload; a
// failed analysis becomes an error object rather than a dropped message.
func (w *Worker) Handle(data []byte) []byte {
	resp, err := w.analyzer.AnalyzeJSON(data)
	if err != nil {
		out, merr := json.Marshal(errorResponse{Error: err.Error()})
		if merr != nil {
			return []byte(`{"error": "internal error"}`)
		}
		return out
	}
	return resp
}

// Listen subscribes on the channel and replies to every request until the
// connection is closed. It returns the live connection so the caller owns
// shutdown.
func (w *Worker) Listen(channel string) (*nats.Conn, error) {
	nc, err := nats.Connect(w.cfg.NatsURL)
	if err != nil {
		return nil, err
	}
	_, err = nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		if err := m.Respond(w.Handle(m.Data)); err != nil {
			log.Error().Err(err).Msg("responding to analysis request")
		}
	})
	if err != nil {
		nc.Close()
		return nil, err
	}
	if err := nc.Flush(); err != nil {
		nc.Close()
		return nil, err
	}
	if err := nc.LastError(); err != nil {
		nc.Close()
		return nil, err
	}
	log.Info().Msgf("Listening on [%s]", channel)
	return nc, nil
}
