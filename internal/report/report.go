package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"raffleScope/internal/model"
)

// RaffleLine is the JSON rendering of a RaffleResult.
type RaffleLine struct {
	Raffle     string      `json:"raffle"`
	StartBlock uint64      `json:"start_block"`
	FromBlock  uint64      `json:"from_block"`
	ToBlock    uint64      `json:"to_block"`
	EventCount int         `json:"event_count"`
	Events     []EventLine `json:"events"`
	Error      string      `json:"error,omitempty"`
}

// EventLine is the JSON rendering of an EventResult.
type EventLine struct {
	TxHash      string                  `json:"tx_hash"`
	BlockNumber uint64                  `json:"block_number"`
	LogIndex    uint                    `json:"log_index"`
	Args        map[string]interface{}  `json:"args,omitempty"`
	LogCount    int                     `json:"log_count"`
	Transfers   []model.DecodedTransfer `json:"transfers"`
	Skipped     []SkipLine              `json:"skipped,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// SkipLine is the JSON rendering of a SkippedLog.
type SkipLine struct {
	LogIndex uint   `json:"log_index"`
	Address  string `json:"address"`
	Reason   string `json:"reason"`
}

// Summary counts what a run produced.
type Summary struct {
	Raffles       int
	FailedRaffles int
	Events        int
	FailedEvents  int
	Transfers     int
	SkippedLogs   int
}

// Add folds one result into the summary.
func (s *Summary) Add(res model.RaffleResult) {
	s.Raffles++
	if res.Failed() {
		s.FailedRaffles++
	}
	s.Events += res.EventCount
	for _, ev := range res.Events {
		if ev.Failed() {
			s.FailedEvents++
		}
		s.Transfers += len(ev.Transfers)
		s.SkippedLogs += len(ev.Skipped)
	}
}

// Writer renders results as JSON lines.
type Writer struct {
	mu     sync.Mutex
	closer io.Closer
	writer *bufio.Writer
}

// NewWriter writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: bufio.NewWriter(w)}
}

// Open writes to stdout when path is "" or "-", otherwise truncates path.
func Open(path string) (*Writer, error) {
	if path == "" || path == "-" {
		return NewWriter(os.Stdout), nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	w := NewWriter(file)
	w.closer = file
	return w, nil
}

// Write renders one raffle result and flushes it.
func (w *Writer) Write(res model.RaffleResult) error {
	line, err := json.Marshal(Line(res))
	if err != nil {
		return fmt.Errorf("marshal raffle result: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write raffle result: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file, if any.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.writer.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Line converts a result into its JSON shape.
func Line(res model.RaffleResult) RaffleLine {
	out := RaffleLine{
		Raffle:     res.Ref.Address.Hex(),
		StartBlock: res.Ref.StartBlock,
		FromBlock:  res.Window.From,
		ToBlock:    res.Window.To,
		EventCount: res.EventCount,
		Events:     make([]EventLine, 0, len(res.Events)),
		Error:      errString(res.Err),
	}
	for _, ev := range res.Events {
		line := EventLine{
			TxHash:      ev.Event.TxHash.Hex(),
			BlockNumber: ev.Event.BlockNumber,
			LogIndex:    ev.Event.LogIndex,
			Args:        renderArgs(ev.Event.Args),
			LogCount:    ev.LogCount,
			Transfers:   ev.Transfers,
			Error:       errString(ev.Err),
		}
		if line.Transfers == nil {
			line.Transfers = []model.DecodedTransfer{}
		}
		for _, skip := range ev.Skipped {
			line.Skipped = append(line.Skipped, SkipLine{
				LogIndex: skip.LogIndex,
				Address:  skip.Address,
				Reason:   errString(skip.Reason),
			})
		}
		out.Events = append(out.Events, line)
	}
	return out
}

func renderArgs(args map[string]interface{}) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		if s, ok := v.(fmt.Stringer); ok {
			out[k] = s.String()
			continue
		}
		out[k] = v
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
