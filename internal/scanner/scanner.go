// Package scanner wires capture output through decode, extraction and the
// store, one synchronous cycle per frame.
package scanner

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/zepa1/nfekey/internal/decode"
	"github.com/zepa1/nfekey/internal/extract"
	"github.com/zepa1/nfekey/internal/journal"
	"github.com/zepa1/nfekey/internal/logging"
	"github.com/zepa1/nfekey/internal/metrics"
	"github.com/zepa1/nfekey/internal/store"
)

// Status classifies the outcome for one decoded payload.
type Status string

const (
	StatusSaved     Status = "saved"
	StatusDuplicate Status = "duplicate"
	StatusNoKey     Status = "no_key"

	// statusNoQR is journal-only: the frame produced no payload at all.
	statusNoQR = "no_qr"
)

// Result is the outcome for one payload found in a frame.
type Result struct {
	FrameID   string `json:"frame_id"`
	AccessKey string `json:"access_key,omitempty"`
	Status    Status `json:"status"`
}

// Scanner runs the decode → extract → store cycle.
type Scanner struct {
	store   *store.Store
	journal *journal.Journal
	log     *logging.Logger
	now     func() time.Time
}

// New builds a Scanner. The journal may be nil to skip event recording.
func New(st *store.Store, jn *journal.Journal, lg *logging.Logger) *Scanner {
	return &Scanner{store: st, journal: jn, log: lg, now: time.Now}
}

// ProcessImage runs one scan cycle over a captured frame. source labels where
// the frame came from ("webcam", "upload", "file"). An empty result slice
// means no QR code was detected; the store is untouched in that case.
func (s *Scanner) ProcessImage(source string, img image.Image) ([]Result, error) {
	frameID := uuid.NewString()
	metrics.FramesProcessed.WithLabelValues(source).Inc()

	payloads, err := decode.Payloads(img)
	if err != nil {
		metrics.DecodeFailures.Inc()
		s.log.Errorf("frame %s (%s): %v", frameID, source, err)
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	if len(payloads) == 0 {
		s.log.Infof("frame %s (%s): no qr code detected", frameID, source)
		s.record(frameID, source, "", statusNoQR)
		return nil, nil
	}

	var results []Result
	for _, payload := range payloads {
		key, ok := extract.Key(payload)
		if !ok {
			metrics.NoKeyPayloads.Inc()
			s.log.Warnf("frame %s (%s): payload has no access key", frameID, source)
			s.record(frameID, source, "", string(StatusNoKey))
			results = append(results, Result{FrameID: frameID, Status: StatusNoKey})
			continue
		}

		stored, err := s.store.Append(key, s.now())
		if err != nil {
			s.log.Errorf("frame %s (%s): store %s: %v", frameID, source, key, err)
			return results, fmt.Errorf("store key: %w", err)
		}

		status := StatusDuplicate
		if stored {
			status = StatusSaved
			metrics.KeysStored.Inc()
			s.log.Infof("frame %s (%s): saved key %s", frameID, source, key)
		} else {
			metrics.Duplicates.Inc()
			s.log.Infof("frame %s (%s): duplicate key %s", frameID, source, key)
		}
		s.record(frameID, source, key, string(status))
		results = append(results, Result{FrameID: frameID, AccessKey: key, Status: status})
	}
	return results, nil
}

func (s *Scanner) record(frameID, source, key, status string) {
	if s.journal == nil {
		return
	}
	err := s.journal.Append(journal.Entry{
		FrameID:   frameID,
		Source:    source,
		AccessKey: key,
		Status:    status,
		Timestamp: s.now(),
	})
	if err != nil {
		s.log.Errorf("journal frame %s: %v", frameID, err)
	}
}
