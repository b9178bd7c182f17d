package graphclient

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"allocation-agent/ipfshash"
	"allocation-agent/utils"
)

// ErrNetworkSource covers transport failures, GraphQL-level errors and
// malformed response data. All of them abort the run.
var ErrNetworkSource = sdkerrors.Register("allocation-agent", 5, "network source failure")

// defaultPageSize is the page length for list queries. Results are read
// page by page until a short page signals the end of the set.
const defaultPageSize = 1000

type Client struct {
	url      string
	client   *http.Client
	pageSize int
}

func NewClient(url string) *Client {
	return &Client{
		url:      url,
		client:   utils.NewHttpClient(2 * time.Minute),
		pageSize: defaultPageSize,
	}
}

// Three shapes for the deployments query. An empty list bound to ipfsHash_in
// matches no entities, so the inclusion constraint only appears in the shape
// used when the inclusion set is non-empty.
const includedDeploymentsQuery = `
query ($minSignal: BigInt!, $include: [String!]!, $exclude: [String!]!, $first: Int!, $skip: Int!) {
  subgraphDeployments(
    first: $first
    skip: $skip
    where: {signalledTokens_gte: $minSignal, ipfsHash_in: $include, ipfsHash_not_in: $exclude}
  ) {
    ipfsHash
    signalledTokens
    stakedTokens
  }
}`

const excludedDeploymentsQuery = `
query ($minSignal: BigInt!, $exclude: [String!]!, $first: Int!, $skip: Int!) {
  subgraphDeployments(
    first: $first
    skip: $skip
    where: {signalledTokens_gte: $minSignal, ipfsHash_not_in: $exclude}
  ) {
    ipfsHash
    signalledTokens
    stakedTokens
  }
}`

const allDeploymentsQuery = `
query ($minSignal: BigInt!, $first: Int!, $skip: Int!) {
  subgraphDeployments(first: $first, skip: $skip, where: {signalledTokens_gte: $minSignal}) {
    ipfsHash
    signalledTokens
    stakedTokens
  }
}`

const indexerQuery = `
query ($id: ID!) {
  indexer(id: $id) {
    id
    stakedTokens
    delegatedTokens
    indexingRewardCut
    allocations {
      id
      allocatedTokens
      subgraphDeployment { ipfsHash }
    }
  }
}`

const allocationsQuery = `
query ($deployments: [String!]!, $first: Int!, $skip: Int!) {
  allocations(
    first: $first
    skip: $skip
    where: {status: Active, subgraphDeployment_: {ipfsHash_in: $deployments}}
  ) {
    id
    allocatedTokens
    subgraphDeployment { ipfsHash }
    indexer {
      id
      stakedTokens
      delegatedTokens
      indexingRewardCut
    }
  }
}`

const paramsQuery = `
{
  graphNetworks(first: 1) {
    totalTokensSignalled
    totalSupply
    networkGRTIssuancePerBlock
    epochLength
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// Wire-level records. Token amounts arrive as decimal strings and are parsed
// into math.Int at this boundary; nothing malformed passes into the domain
// model.
type wireDeployment struct {
	IpfsHash        string `json:"ipfsHash"`
	SignalledTokens string `json:"signalledTokens"`
	StakedTokens    string `json:"stakedTokens"`
}

type wireAllocation struct {
	ID                 string       `json:"id"`
	AllocatedTokens    string       `json:"allocatedTokens"`
	SubgraphDeployment wireDeployed `json:"subgraphDeployment"`
	Indexer            *wireIndexer `json:"indexer"`
}

type wireDeployed struct {
	IpfsHash string `json:"ipfsHash"`
}

type wireIndexer struct {
	ID                string           `json:"id"`
	StakedTokens      string           `json:"stakedTokens"`
	DelegatedTokens   string           `json:"delegatedTokens"`
	IndexingRewardCut uint32           `json:"indexingRewardCut"`
	Allocations       []wireAllocation `json:"allocations"`
}

type wireNetwork struct {
	TotalTokensSignalled       string `json:"totalTokensSignalled"`
	TotalSupply                string `json:"totalSupply"`
	NetworkGRTIssuancePerBlock string `json:"networkGRTIssuancePerBlock"`
	EpochLength                int64  `json:"epochLength"`
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	resp, err := utils.SendPostJsonRequest(ctx, c.client, c.url, graphqlRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return sdkerrors.Wrap(ErrNetworkSource, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sdkerrors.Wrapf(ErrNetworkSource, "unexpected status code: %d", resp.StatusCode)
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return sdkerrors.Wrap(ErrNetworkSource, err.Error())
	}
	if len(envelope.Errors) > 0 {
		return sdkerrors.Wrapf(ErrNetworkSource, "graphql error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return sdkerrors.Wrap(ErrNetworkSource, err.Error())
	}
	return nil
}

func parseTokens(field, value string) (math.Int, error) {
	amount, ok := math.NewIntFromString(value)
	if !ok {
		return math.Int{}, sdkerrors.Wrapf(ErrNetworkSource, "%s: malformed token amount %q", field, value)
	}
	return amount, nil
}

func hashStrings(hashes []ipfshash.IpfsHash) []string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = h.String()
	}
	return out
}

func (c *Client) SubgraphDeployments(ctx context.Context, include, exclude []ipfshash.IpfsHash, minSignal math.Int) ([]Subgraph, error) {
	query := allDeploymentsQuery
	variables := map[string]any{"minSignal": minSignal.String()}
	switch {
	case len(include) > 0:
		query = includedDeploymentsQuery
		variables["include"] = hashStrings(include)
		variables["exclude"] = hashStrings(exclude)
	case len(exclude) > 0:
		query = excludedDeploymentsQuery
		variables["exclude"] = hashStrings(exclude)
	}

	var subgraphs []Subgraph
	for skip := 0; ; skip += c.pageSize {
		variables["first"] = c.pageSize
		variables["skip"] = skip

		var data struct {
			Deployments []wireDeployment `json:"subgraphDeployments"`
		}
		if err := c.query(ctx, query, variables, &data); err != nil {
			return nil, err
		}
		for _, d := range data.Deployments {
			hash := ipfshash.IpfsHash(d.IpfsHash)
			if err := ipfshash.Validate(hash); err != nil {
				return nil, sdkerrors.Wrapf(ErrNetworkSource, "deployment %q: %s", d.IpfsHash, err.Error())
			}
			signalled, err := parseTokens("signalledTokens", d.SignalledTokens)
			if err != nil {
				return nil, err
			}
			staked, err := parseTokens("stakedTokens", d.StakedTokens)
			if err != nil {
				return nil, err
			}
			subgraphs = append(subgraphs, Subgraph{
				ID:              hash,
				SignalledTokens: signalled,
				StakedTokens:    staked,
			})
		}
		if len(data.Deployments) < c.pageSize {
			return subgraphs, nil
		}
	}
}

func (c *Client) IndexerByID(ctx context.Context, id string) (*Indexer, error) {
	var data struct {
		Indexer *wireIndexer `json:"indexer"`
	}
	if err := c.query(ctx, indexerQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Indexer == nil {
		return nil, sdkerrors.Wrapf(ErrNetworkSource, "indexer %s not found", id)
	}
	return decodeIndexer(*data.Indexer)
}

func (c *Client) IndexersForDeployments(ctx context.Context, deployments []ipfshash.IpfsHash) ([]Indexer, error) {
	var raw []wireAllocation
	for skip := 0; ; skip += c.pageSize {
		var data struct {
			Allocations []wireAllocation `json:"allocations"`
		}
		err := c.query(ctx, allocationsQuery, map[string]any{
			"deployments": hashStrings(deployments),
			"first":       c.pageSize,
			"skip":        skip,
		}, &data)
		if err != nil {
			return nil, err
		}
		raw = append(raw, data.Allocations...)
		if len(data.Allocations) < c.pageSize {
			break
		}
	}

	// Group allocations under their indexer, preserving first-seen order.
	var order []string
	byID := make(map[string]*Indexer)
	for _, a := range raw {
		if a.Indexer == nil {
			return nil, sdkerrors.Wrapf(ErrNetworkSource, "allocation %s lacks an indexer", a.ID)
		}
		idx, ok := byID[a.Indexer.ID]
		if !ok {
			decoded, err := decodeIndexer(*a.Indexer)
			if err != nil {
				return nil, err
			}
			byID[a.Indexer.ID] = decoded
			order = append(order, a.Indexer.ID)
			idx = decoded
		}
		alloc, err := decodeAllocation(a, idx.ID)
		if err != nil {
			return nil, err
		}
		idx.Allocations = append(idx.Allocations, alloc)
	}

	indexers := make([]Indexer, 0, len(order))
	for _, id := range order {
		indexers = append(indexers, *byID[id])
	}
	return indexers, nil
}

func (c *Client) Params(ctx context.Context) (*NetworkParameters, error) {
	var data struct {
		Networks []wireNetwork `json:"graphNetworks"`
	}
	if err := c.query(ctx, paramsQuery, nil, &data); err != nil {
		return nil, err
	}
	if len(data.Networks) == 0 {
		return nil, sdkerrors.Wrap(ErrNetworkSource, "no network parameters record")
	}
	n := data.Networks[0]

	signalled, err := parseTokens("totalTokensSignalled", n.TotalTokensSignalled)
	if err != nil {
		return nil, err
	}
	supply, err := parseTokens("totalSupply", n.TotalSupply)
	if err != nil {
		return nil, err
	}
	issuance, err := parseTokens("networkGRTIssuancePerBlock", n.NetworkGRTIssuancePerBlock)
	if err != nil {
		return nil, err
	}
	return &NetworkParameters{
		TotalTokensSignalled: signalled,
		TotalSupply:          supply,
		IssuancePerBlock:     issuance,
		EpochLength:          n.EpochLength,
	}, nil
}

func decodeIndexer(w wireIndexer) (*Indexer, error) {
	staked, err := parseTokens("stakedTokens", w.StakedTokens)
	if err != nil {
		return nil, err
	}
	delegated, err := parseTokens("delegatedTokens", w.DelegatedTokens)
	if err != nil {
		return nil, err
	}
	indexer := &Indexer{
		ID:                w.ID,
		StakedTokens:      staked,
		DelegatedTokens:   delegated,
		IndexingRewardCut: w.IndexingRewardCut,
	}
	for _, a := range w.Allocations {
		alloc, err := decodeAllocation(a, w.ID)
		if err != nil {
			return nil, err
		}
		indexer.Allocations = append(indexer.Allocations, alloc)
	}
	return indexer, nil
}

func decodeAllocation(w wireAllocation, indexerID string) (Allocation, error) {
	amount, err := parseTokens("allocatedTokens", w.AllocatedTokens)
	if err != nil {
		return Allocation{}, err
	}
	hash := ipfshash.IpfsHash(w.SubgraphDeployment.IpfsHash)
	if err := ipfshash.Validate(hash); err != nil {
		return Allocation{}, sdkerrors.Wrapf(ErrNetworkSource, "allocation %s: %s", w.ID, err.Error())
	}
	return Allocation{
		ID:                 w.ID,
		SubgraphDeployment: hash,
		AllocatedTokens:    amount,
		Indexer:            indexerID,
	}, nil
}
