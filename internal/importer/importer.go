package importer

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/registry"
	"github.com/sojunghan/territory-cli/internal/territory"
)

// Claimer registers one claim request.
type Claimer interface {
	Claim(ctx context.Context, req territory.ClaimRequest) (model.Claim, error)
}

// Status is the outcome of one imported row.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusConflict Status = "conflict"
	StatusFailed   Status = "failed"
)

// Result reports what happened to one row.
type Result struct {
	Line   int         `json:"line"`
	Key    string      `json:"key"`
	Status Status      `json:"status"`
	Claim  model.Claim `json:"claim,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Summary counts the outcomes of an import.
type Summary struct {
	Accepted  int      `json:"accepted"`
	Conflicts int      `json:"conflicts"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// Import registers every row of r in file order, so earlier rows win
// conflicts against later ones. Row failures are collected in the summary;
// only unreadable input aborts the import.
func Import(ctx context.Context, c Claimer, r io.Reader) (*Summary, error) {
	recCh, errCh := StreamRecords(ctx, r)

	var sum Summary
	for rec := range recCh {
		res := Result{
			Line: rec.Line,
			Key:  model.Key{Owner: rec.Request.Owner, Branch: rec.Request.Branch, Place: rec.Request.Place}.String(),
		}

		err := rec.Err
		if err == nil {
			res.Claim, err = c.Claim(ctx, rec.Request)
		}

		var ce *registry.ConflictError
		switch {
		case err == nil:
			res.Status = StatusAccepted
			res.Key = res.Claim.Key().String()
			sum.Accepted++
		case errors.As(err, &ce):
			res.Status = StatusConflict
			res.Error = ce.Error()
			sum.Conflicts++
		default:
			res.Status = StatusFailed
			res.Error = err.Error()
			sum.Failed++
		}
		sum.Results = append(sum.Results, res)
	}

	for err := range errCh {
		if err != nil {
			return &sum, err
		}
	}

	zap.L().Info("importer: import finished",
		zap.Int("accepted", sum.Accepted),
		zap.Int("conflicts", sum.Conflicts),
		zap.Int("failed", sum.Failed),
	)
	return &sum, nil
}
