package oracle

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"vrf-flip-backend/internal/logger"

	"github.com/pkg/errors"
)

var ErrQueueFull = errors.New("oracle request queue is full")

// Runner is the randomness function: a fixed pool of workers that draw
// words, sign them and hand the token to a Settler.
type Runner struct {
	signer   *Signer
	settler  Settler
	requests chan Request
	workers  int
	entropy  io.Reader
	wg       sync.WaitGroup
}

func NewRunner(signer *Signer, settler Settler, workers, queueSize int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		signer:   signer,
		settler:  settler,
		requests: make(chan Request, queueSize),
		workers:  workers,
		entropy:  rand.Reader,
	}
}

// WithEntropy replaces the word source. Tests use it for fixed outcomes.
func (r *Runner) WithEntropy(src io.Reader) *Runner {
	r.entropy = src
	return r
}

// Start runs the workers until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work(ctx, i)
	}
}

func (r *Runner) Wait() {
	r.wg.Wait()
}

// Dispatch enqueues without blocking.
func (r *Runner) Dispatch(ctx context.Context, req Request) error {
	select {
	case r.requests <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	lctx := logger.BackgroundContext("oracle-runner")

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.requests:
			token, err := r.Fulfill(req)
			if err != nil {
				logger.Error(lctx).Err(err).Int("worker", id).Str("request", req.Request).Msg("failed to fulfil randomness request")
				continue
			}
			if err := r.settler.SubmitResult(ctx, req.Request, token); err != nil {
				logger.Warn(lctx).Err(err).Int("worker", id).Str("request", req.Request).Str("counter", req.Counter.String()).Msg("settlement rejected")
				continue
			}
			logger.Debug(lctx).Int("worker", id).Str("request", req.Request).Str("counter", req.Counter.String()).Msg("randomness delivered")
		}
	}
}

// Fulfill draws the requested number of words and signs the response.
func (r *Runner) Fulfill(req Request) (string, error) {
	n := int(req.NumWords)
	if n < 1 {
		n = 1
	}
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r.entropy, buf); err != nil {
		return "", errors.Wrap(err, "read entropy")
	}
	words := make([]uint32, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	return r.signer.Sign(Response{
		Request:  req.Request,
		Player:   req.Player,
		Function: req.Function,
		Counter:  req.Counter,
		Words:    words,
	})
}
