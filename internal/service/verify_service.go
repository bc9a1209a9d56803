package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/gowebpki/jcs"
	"golang.org/x/sync/errgroup"

	"artx/internal/contenthash"
	"artx/internal/models"
	"artx/internal/store"
)

// VerifyService rechecks stored records. It never writes.
type VerifyService struct {
	*deps
	assets store.AssetStore
	agents store.AgentStore
}

// VerifyAsset rehashes the stored file and compares it with the record.
func (s *VerifyService) VerifyAsset(ctx context.Context, xid string) models.VerificationResult {
	res := models.VerificationResult{Target: models.VerifyTargetAsset, ID: xid}

	asset, err := s.assets.GetAsset(ctx, xid)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.fail(res, models.VerifyRecordMissing)
	case errors.Is(err, store.ErrCorrupt):
		return s.fail(res, models.VerifyCorruptRecord)
	case err != nil:
		return s.fail(res, err.Error())
	}
	if err := asset.Validate(); err != nil {
		return s.fail(res, models.VerifyCorruptRecord)
	}

	data, err := s.assets.ReadAssetFile(ctx, xid, asset.File.StoredName)
	if errors.Is(err, os.ErrNotExist) {
		return s.fail(res, models.VerifyFileMissing)
	}
	if err != nil {
		return s.fail(res, err.Error())
	}

	ok, err := contenthash.Matches(asset.File.ContentAddress, data)
	if err != nil {
		return s.fail(res, models.VerifyInvalidAddress)
	}
	if !ok {
		return s.fail(res, models.VerifyHashMismatch)
	}
	res.Verified = true
	return res
}

// VerifyAgent checks that the stored profile survives a decode/encode
// round trip without losing or altering fields.
func (s *VerifyService) VerifyAgent(ctx context.Context, id string) models.VerificationResult {
	res := models.VerificationResult{Target: models.VerifyTargetAgent, ID: id}

	raw, err := s.agents.GetAgentRaw(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return s.fail(res, models.VerifyRecordMissing)
	}
	if err != nil {
		return s.fail(res, err.Error())
	}

	var agent models.Agent
	if err := json.Unmarshal(raw, &agent); err != nil {
		return s.fail(res, models.VerifyCorruptRecord)
	}
	if err := agent.Validate(); err != nil || agent.ID != id {
		return s.fail(res, models.VerifyCorruptRecord)
	}
	encoded, err := json.Marshal(agent)
	if err != nil {
		return s.fail(res, models.VerifyCorruptRecord)
	}

	want, err := canonicalJSON(raw)
	if err != nil {
		return s.fail(res, models.VerifyCorruptRecord)
	}
	got, err := canonicalJSON(encoded)
	if err != nil || !bytes.Equal(want, got) {
		return s.fail(res, models.VerifyRoundTripLoss)
	}
	res.Verified = true
	return res
}

// VerifyAll checks every asset and agent with bounded parallelism. Failures
// are collected in the report; only listing errors abort the run.
func (s *VerifyService) VerifyAll(ctx context.Context) (models.VerificationReport, error) {
	var report models.VerificationReport

	assetIDs, err := s.assets.ListAssetIDs(ctx)
	if err != nil {
		return report, storeFailure(err)
	}
	agentIDs, err := s.agents.ListAgentIDs(ctx)
	if err != nil {
		return report, storeFailure(err)
	}

	results := make([]models.VerificationResult, len(assetIDs)+len(agentIDs))
	g, gctx := errgroup.WithContext(ctx)
	limit := s.policy.VerifyConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, xid := range assetIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.VerifyAsset(gctx, xid)
			return nil
		})
	}
	for i, id := range agentIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[len(assetIDs)+i] = s.VerifyAgent(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for _, res := range results {
		report.Add(res)
	}
	s.log().Info("verification finished", "checked", report.Checked, "failed", report.Failed)
	return report, nil
}

func (s *VerifyService) fail(res models.VerificationResult, msg string) models.VerificationResult {
	res.Verified = false
	res.Error = msg
	s.log().Warn("verification failed", "target", res.Target, "id", res.ID, "error", msg)
	return res
}

// canonicalJSON returns the RFC 8785 form of a document.
func canonicalJSON(data []byte) ([]byte, error) {
	return jcs.Transform(data)
}
