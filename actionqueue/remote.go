package actionqueue

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	sdkerrors "cosmossdk.io/errors"

	"allocation-agent/logging"
	"allocation-agent/reconcile"
	"allocation-agent/utils"
)

// ErrManagementBoundary covers transport and response failures of the action
// queue mutation. The batch is one call; there is no retry and no
// partial-success handling.
var ErrManagementBoundary = sdkerrors.Register("allocation-agent", 6, "management boundary failure")

const queueActionsMutation = `
mutation ($actions: [ActionInput!]!) {
  queueActions(actions: $actions) {
    id
    status
  }
}`

// ActionRecord is the management boundary's wire form of one action.
type ActionRecord struct {
	Type         string `json:"type"`
	DeploymentID string `json:"deploymentID"`
	Amount       string `json:"amount,omitempty"`
	AllocationID string `json:"allocationID,omitempty"`
}

// QueuedAction is the boundary's acknowledgement of one queued record.
type QueuedAction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RemoteSink delivers the action list to the action-queue mutation endpoint
// in a single batched call.
type RemoteSink struct {
	url    string
	client *http.Client
}

func NewRemoteSink(url string) *RemoteSink {
	return &RemoteSink{
		url:    url,
		client: utils.NewHttpClient(2 * time.Minute),
	}
}

var _ Sink = (*RemoteSink)(nil)

func (s *RemoteSink) Deliver(ctx context.Context, actions []reconcile.Action) error {
	records := make([]ActionRecord, len(actions))
	for i, a := range actions {
		records[i] = toRecord(a)
	}

	request := struct {
		Query     string `json:"query"`
		Variables struct {
			Actions []ActionRecord `json:"actions"`
		} `json:"variables"`
	}{Query: queueActionsMutation}
	request.Variables.Actions = records

	resp, err := utils.SendPostJsonRequest(ctx, s.client, s.url, request)
	if err != nil {
		return sdkerrors.Wrap(ErrManagementBoundary, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sdkerrors.Wrapf(ErrManagementBoundary, "unexpected status code: %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			QueueActions []QueuedAction `json:"queueActions"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return sdkerrors.Wrap(ErrManagementBoundary, err.Error())
	}
	if len(envelope.Errors) > 0 {
		return sdkerrors.Wrapf(ErrManagementBoundary, "mutation error: %s", envelope.Errors[0].Message)
	}

	logging.Info("actions queued", logging.Sink,
		"queued", len(envelope.Data.QueueActions), "sent", len(records))
	return nil
}

func toRecord(a reconcile.Action) ActionRecord {
	record := ActionRecord{
		Type:         string(a.Type),
		DeploymentID: a.Hash.String(),
	}
	switch a.Type {
	case reconcile.ActionAllocate:
		record.Amount = a.Amount.String()
	case reconcile.ActionUnallocate:
		record.AllocationID = a.CloseHandle
	case reconcile.ActionReallocate:
		record.Amount = a.Amount.String()
		record.AllocationID = a.CloseHandle
	}
	return record
}
