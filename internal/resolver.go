package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// AttachmentState is the lifecycle of a message's attachment block
type AttachmentState int

const (
	AttachmentsIdle AttachmentState = iota
	AttachmentsLoading
	AttachmentsReady
	AttachmentsFailed
)

func (s AttachmentState) String() string {
	switch s {
	case AttachmentsLoading:
		return "loading"
	case AttachmentsReady:
		return "ready"
	case AttachmentsFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s AttachmentState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Attachments is the resolved attachment block of the current message
type Attachments struct {
	State AttachmentState `json:"state" yaml:"state"`
	Files []ResolvedFile  `json:"files,omitempty" yaml:"files,omitempty"`
	Error string          `json:"error,omitempty" yaml:"error,omitempty"`
	Err   error           `json:"-" yaml:"-"`

	owner *ChatMessage
}

// Loading reports whether the block should show a loading indicator
func (a Attachments) Loading() bool {
	return a.State == AttachmentsLoading
}

// AttachmentResolver signs a message's file keys one at a time, in order.
// Each run is tagged with a generation; a run only commits if no newer
// message was shown since it started.
type AttachmentResolver struct {
	signer Signer

	// notifyMu orders callbacks so the last one delivered is the current state
	notifyMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    *ChatMessage
	state      Attachments
	onChange   func(Attachments)
}

// NewAttachmentResolver creates a resolver using signer
func NewAttachmentResolver(signer Signer) *AttachmentResolver {
	return &AttachmentResolver{signer: signer}
}

// OnChange registers a callback invoked after every state transition of the
// current message. Callbacks are serialized and must not call Show or Resolve.
func (r *AttachmentResolver) OnChange(fn func(Attachments)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Snapshot returns the current attachment state
func (r *AttachmentResolver) Snapshot() Attachments {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyAttachments(r.state)
}

// Show starts resolution for msg in the background. The returned channel is
// closed when the run finishes, whether its result was applied or discarded.
func (r *AttachmentResolver) Show(ctx context.Context, msg *ChatMessage) <-chan struct{} {
	done := make(chan struct{})
	gen, runCtx, cancel, files := r.begin(ctx, msg)
	if len(files) == 0 {
		cancel()
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer cancel()
		resolved, err := r.resolve(runCtx, files)
		r.commit(gen, resolved, err)
	}()
	return done
}

// Resolve resolves msg's attachments synchronously and returns the result of
// this run, even if a newer message has since been shown.
func (r *AttachmentResolver) Resolve(ctx context.Context, msg *ChatMessage) (Attachments, error) {
	gen, runCtx, cancel, files := r.begin(ctx, msg)
	defer cancel()
	if len(files) == 0 {
		return Attachments{State: AttachmentsIdle}, nil
	}

	resolved, err := r.resolve(runCtx, files)
	r.commit(gen, resolved, err)
	return result(resolved, err), err
}

// Close cancels any in-flight run
func (r *AttachmentResolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.current = nil
	r.state = Attachments{State: AttachmentsIdle}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *AttachmentResolver) begin(ctx context.Context, msg *ChatMessage) (uint64, context.Context, context.CancelFunc, []FileRef) {
	var files []FileRef
	if msg != nil && msg.Type == MessageTypeAI {
		files = append(files, msg.Files()...)
	}

	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.generation++
	gen := r.generation
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.current = msg
	if len(files) > 0 {
		r.state = Attachments{State: AttachmentsLoading, owner: msg}
	} else {
		r.state = Attachments{State: AttachmentsIdle, owner: msg}
	}
	r.mu.Unlock()

	LogDebug("Attachment run %d started with %d file(s)", gen, len(files))
	r.publish(gen)
	return gen, runCtx, cancel, files
}

// resolve signs files sequentially, stopping at the first failure
func (r *AttachmentResolver) resolve(ctx context.Context, files []FileRef) ([]ResolvedFile, error) {
	resolved := make([]ResolvedFile, 0, len(files))
	for _, f := range files {
		u, err := r.signer.SignURL(ctx, f.Key)
		if err != nil {
			var signErr *SigningError
			if !errors.As(err, &signErr) {
				err = &SigningError{Key: f.Key, Err: err}
			}
			return nil, err
		}
		resolved = append(resolved, ResolvedFile{FileRef: f, URL: u})
	}
	return resolved, nil
}

func (r *AttachmentResolver) commit(gen uint64, resolved []ResolvedFile, err error) bool {
	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		staleResolutions.Inc()
		LogDebug("Discarding stale attachment run %d", gen)
		return false
	}
	r.state = result(resolved, err)
	r.state.owner = r.current
	r.mu.Unlock()

	if err != nil {
		LogError("Failed to resolve attachments: %v", err)
	}
	r.publish(gen)
	return true
}

// publish delivers the state of run gen unless a newer run has started
func (r *AttachmentResolver) publish(gen uint64) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if gen != r.generation || r.onChange == nil {
		r.mu.Unlock()
		return
	}
	state, notify := copyAttachments(r.state), r.onChange
	r.mu.Unlock()

	notify(state)
}

func result(resolved []ResolvedFile, err error) Attachments {
	if err != nil {
		return Attachments{State: AttachmentsFailed, Err: err, Error: err.Error()}
	}
	return Attachments{State: AttachmentsReady, Files: resolved}
}

func copyAttachments(a Attachments) Attachments {
	if a.Files != nil {
		a.Files = append([]ResolvedFile(nil), a.Files...)
	}
	return a
}

// belongsTo reports whether a is the state of msg. States without an owner
// come from a synchronous Resolve and are trusted.
func (a Attachments) belongsTo(msg *ChatMessage) bool {
	return a.owner == nil || a.owner == msg
}

// String is used in debug logs
func (a Attachments) String() string {
	return fmt.Sprintf("%s (%d file(s))", a.State, len(a.Files))
}
