package branchsync

import "context"

// State is the Sync state machine of spec §4.9: a run moves strictly
// forward through these states, with PullFailed and PushFailed terminal.
type State string

const (
	StateIdle        State = "idle"
	StatePulling     State = "pulling"
	StateLoaded      State = "loaded"
	StateWriting     State = "writing"
	StatePushed      State = "pushed"
	StatePullFailed  State = "pull_failed"
	StatePushFailed  State = "push_failed"
)

// Run tracks one bootstrap/index/review invocation's progress through the
// sync state machine, so callers (and tests) can assert on it without
// re-deriving state from error values.
type Run struct {
	state State
	err   error
}

func NewRun() *Run { return &Run{state: StateIdle} }

func (r *Run) State() State { return r.state }
func (r *Run) Err() error   { return r.err }

func (r *Run) markPulling()             { r.state = StatePulling }
func (r *Run) markLoaded()              { r.state = StateLoaded }
func (r *Run) markWriting()             { r.state = StateWriting }
func (r *Run) markPushed()              { r.state = StatePushed }
func (r *Run) markPullFailed(err error) { r.state, r.err = StatePullFailed, err }
func (r *Run) markPushFailed(err error) { r.state, r.err = StatePushFailed, err }

// Pull drives client.Pull while recording state transitions on r.
func (r *Run) Pull(ctx context.Context, client *Client) (*Session, error) {
	r.markPulling()
	sess, err := client.Pull(ctx)
	if err != nil {
		r.markPullFailed(err)
		return nil, err
	}
	r.markLoaded()
	return sess, nil
}

// Push drives client.Push while recording state transitions on r.
func (r *Run) Push(ctx context.Context, client *Client, sess *Session, fn func(*Session) (*Artifacts, error)) error {
	r.markWriting()
	if err := client.Push(ctx, sess, fn); err != nil {
		r.markPushFailed(err)
		return err
	}
	r.markPushed()
	return nil
}
