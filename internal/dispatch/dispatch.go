// Package dispatch routes user inputs to the model and search gateways,
// renders the results and records them in the session log.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/sink"
	"github.com/hejijunhao/kimo/internal/sink/multi"
)

// Path is the processing route chosen for an input.
type Path string

const (
	PathNone    Path = ""
	PathImage   Path = "image"
	PathText    Path = "text"
	PathDrawing Path = "drawing"
	PathSearch  Path = "search"
	PathAI      Path = "ai"
	PathVoice   Path = "voice"
)

// User-facing failure messages.
const (
	MsgImageFailed       = "Failed to analyze image"
	MsgFileFailed        = "Error processing file"
	MsgHandwritingFailed = "Failed to recognize handwriting"
	MsgQueryFailed       = "An error occurred. Please try again."
	MsgVoiceFailed       = "Voice input failed"
	MsgNoResults         = "No results found."
	MsgDegraded          = "Some features might be unavailable"
)

// DefaultSearchTimeout bounds every web search.
const DefaultSearchTimeout = 5 * time.Second

var (
	errNoResponder   = errors.New("dispatch: no responder configured")
	errNoTranscriber = errors.New("dispatch: no transcriber configured")
)

// Result describes what a single dispatch did.
type Result struct {
	Path    Path
	Blocks  []sink.Block
	Entries []model.SessionEntry
	Prefill string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSearchPredicate replaces DefaultSearchPredicate for submitted text.
func WithSearchPredicate(f func(string) bool) Option {
	return func(d *Dispatcher) { d.isSearch = f }
}

func WithSearchTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.searchTimeout = t }
}

func WithResponder(r Responder) Option {
	return func(d *Dispatcher) { d.responder = r }
}

func WithTranscriber(t Transcriber) Option {
	return func(d *Dispatcher) { d.transcriber = t }
}

// WithSink sets where blocks and loading transitions go. Default: discard.
func WithSink(s sink.Sink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// Dispatcher classifies inputs and drives one processing path per input.
// It is safe for concurrent use.
type Dispatcher struct {
	models        Models
	search        Searcher
	log           Recorder
	responder     Responder
	transcriber   Transcriber
	sink          sink.Sink
	isSearch      func(string) bool
	searchTimeout time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	inflight int

	// notifyMu orders SetLoading calls; shown is the last state sent.
	notifyMu sync.Mutex
	shown    bool
}

// New creates a Dispatcher.
func New(models Models, search Searcher, log Recorder, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		models:        models,
		search:        search,
		log:           log,
		sink:          sink.Nop{},
		isSearch:      DefaultSearchPredicate,
		searchTimeout: DefaultSearchTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InFlight returns the number of dispatches currently running.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight
}

// Loading reports whether the loading indicator is shown.
func (d *Dispatcher) Loading() bool { return d.InFlight() > 0 }

func (d *Dispatcher) begin() {
	d.mu.Lock()
	d.inflight++
	first := d.inflight == 1
	d.mu.Unlock()
	if first {
		d.publishLoading()
	}
}

func (d *Dispatcher) end() {
	d.mu.Lock()
	d.inflight--
	last := d.inflight == 0
	d.mu.Unlock()
	if last {
		d.publishLoading()
	}
}

// publishLoading sends the current loading state to the sink if it differs
// from the last one sent. The counter lock is not held during the call.
func (d *Dispatcher) publishLoading() {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	loading := d.Loading()
	if loading == d.shown {
		return
	}
	d.shown = loading
	d.sink.SetLoading(loading)
}

// run is the state of a single dispatch.
type run struct {
	Result
	out sink.Sink
}

// Dispatch processes one input. Failures are rendered as error blocks and
// logged; nothing is recorded for a failed path.
func (d *Dispatcher) Dispatch(ctx context.Context, in model.Input) Result {
	return d.DispatchTo(ctx, in, nil)
}

// DispatchTo is Dispatch with blocks also delivered to extra. Loading
// transitions still go only to the dispatcher's own sink.
func (d *Dispatcher) DispatchTo(ctx context.Context, in model.Input, extra sink.Sink) Result {
	if s, ok := in.(model.Submit); ok && strings.TrimSpace(s.Text) == "" {
		return Result{}
	}

	d.begin()
	defer d.end()

	r := &run{out: d.sink}
	if extra != nil {
		r.out = multi.New(d.sink, extra)
	}
	switch v := in.(type) {
	case model.ImageUpload:
		d.image(ctx, r, v)
	case model.TextUpload:
		d.text(ctx, r, v)
	case model.Drawing:
		d.drawing(ctx, r, v)
	case model.Submit:
		d.submit(ctx, r, strings.TrimSpace(v.Text))
	case model.Voice:
		d.voice(ctx, r, v)
	default:
		d.logger.Warn("ignoring unsupported input", "type", fmt.Sprintf("%T", in))
	}
	return r.Result
}

func (d *Dispatcher) image(ctx context.Context, r *run, in model.ImageUpload) {
	r.Path = PathImage
	img, _, decodeErr := image.Decode(bytes.NewReader(in.Data))
	if decodeErr != nil {
		decodeErr = fmt.Errorf("dispatch: decode %s: %w", in.Name, decodeErr)
	}

	// Classification and handwriting recognition fail independently.
	err := decodeErr
	var preds []model.Prediction
	if err == nil {
		preds, err = d.models.ClassifyImage(ctx, img)
	}
	if err != nil {
		d.fail(ctx, r, MsgImageFailed, "image classification failed", err, "file", in.Name)
	} else {
		d.emit(ctx, r, "Image Analysis:\n"+formatPredictions(preds))
		d.record(ctx, r, model.ImagePayload{File: in.Name, Results: preds})
	}

	err = decodeErr
	var text string
	if err == nil {
		text, err = d.models.RecognizeHandwriting(ctx, img)
	}
	if err != nil {
		d.fail(ctx, r, MsgFileFailed, "handwriting recognition failed", err, "file", in.Name)
		return
	}
	d.emit(ctx, r, "Handwriting Recognition: "+text)
	d.record(ctx, r, model.HandwritingPayload{File: in.Name, Text: text})
}

func formatPredictions(preds []model.Prediction) string {
	lines := make([]string, len(preds))
	for i, p := range preds {
		lines[i] = fmt.Sprintf("%s (%d%%)", p.Label, int(math.Round(p.Confidence*100)))
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) text(ctx context.Context, r *run, in model.TextUpload) {
	r.Path = PathText
	content := string(in.Data)
	score, err := d.models.CheckPlagiarism(ctx, content)
	if err != nil {
		d.fail(ctx, r, MsgFileFailed, "plagiarism check failed", err, "file", in.Name)
		return
	}
	d.emit(ctx, r, fmt.Sprintf("Plagiarism Score: %.1f%%", score))
	d.record(ctx, r, model.TextPayload{File: in.Name, Content: content, Score: score})
}

func (d *Dispatcher) drawing(ctx context.Context, r *run, in model.Drawing) {
	r.Path = PathDrawing
	if in.Canvas == nil {
		d.fail(ctx, r, MsgHandwritingFailed, "handwriting recognition failed", errors.New("dispatch: empty canvas"))
		return
	}
	text, err := d.models.RecognizeHandwriting(ctx, in.Canvas)
	if err != nil {
		d.fail(ctx, r, MsgHandwritingFailed, "handwriting recognition failed", err)
		return
	}
	d.emit(ctx, r, "Handwriting: "+text)
	d.record(ctx, r, model.DrawingPayload{Text: text})
}

func (d *Dispatcher) submit(ctx context.Context, r *run, text string) {
	if d.isSearch(text) {
		r.Path = PathSearch
		res := d.search.Search(ctx, text, d.searchTimeout)
		display := res.AbstractText
		if display == "" {
			display = MsgNoResults
		}
		d.emit(ctx, r, display)
		d.record(ctx, r, model.SearchPayload{Query: text, Results: res})
		return
	}

	r.Path = PathAI
	if d.responder == nil {
		d.fail(ctx, r, MsgQueryFailed, "query failed", errNoResponder)
		return
	}
	resp, err := d.responder.Respond(ctx, text)
	if err != nil {
		d.fail(ctx, r, MsgQueryFailed, "query failed", err)
		return
	}
	resp = Humanize(resp)
	d.emit(ctx, r, resp)
	d.record(ctx, r, model.AIPayload{Query: text, Response: resp})
}

// voice only produces text for the input field; it is never recorded.
func (d *Dispatcher) voice(ctx context.Context, r *run, in model.Voice) {
	r.Path = PathVoice
	if t := strings.TrimSpace(in.Transcript); t != "" {
		r.Prefill = t
		return
	}
	if d.transcriber == nil {
		d.fail(ctx, r, MsgVoiceFailed, "voice input failed", errNoTranscriber)
		return
	}
	t, err := d.transcriber.Transcribe(ctx, in.Audio, in.MediaType)
	if err == nil && strings.TrimSpace(t) == "" {
		err = errors.New("dispatch: empty transcript")
	}
	if err != nil {
		d.fail(ctx, r, MsgVoiceFailed, "voice input failed", err)
		return
	}
	r.Prefill = strings.TrimSpace(t)
}

func (d *Dispatcher) emit(ctx context.Context, r *run, text string) {
	d.display(ctx, r, sink.Block{Path: string(r.Path), Text: text})
}

func (d *Dispatcher) fail(ctx context.Context, r *run, msg, diag string, err error, attrs ...any) {
	d.logger.Error(diag, append(attrs, "path", string(r.Path), "error", err)...)
	d.display(ctx, r, sink.Block{Path: string(r.Path), Text: msg, Error: true})
}

func (d *Dispatcher) display(ctx context.Context, r *run, b sink.Block) {
	r.Blocks = append(r.Blocks, b)
	if err := r.out.Display(ctx, b); err != nil {
		d.logger.Warn("sink display failed", "path", b.Path, "error", err)
	}
}

func (d *Dispatcher) record(ctx context.Context, r *run, p model.Payload) {
	e, err := d.log.Append(ctx, p)
	if err != nil {
		d.logger.Error("failed to persist session entry", "type", string(p.EntryType()), "error", err)
	}
	if e.ID != "" {
		r.Entries = append(r.Entries, e)
	}
}
