package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"raffleScope/internal/model"
)

// DefaultGraphQLURL is the raffle subgraph.
const DefaultGraphQLURL = "https://api.thegraph.com/subgraphs/name/top-comengineer/raffle/"

const firstMintQuery = `query RaffleStarts {
  raffles {
    mint(first: 1, orderBy: blockNumber, orderDirection: asc) {
      blockNumber
    }
    id
    address
  }
}`

// GraphQLSource reads raffle starts from the raffle subgraph.
type GraphQLSource struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewGraphQLSource builds a subgraph source. An empty url uses DefaultGraphQLURL.
func NewGraphQLSource(url string, timeout time.Duration, logger *zap.Logger) *GraphQLSource {
	if url == "" {
		url = DefaultGraphQLURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphQLSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data *struct {
		Raffles []struct {
			ID      string `json:"id"`
			Address string `json:"address"`
			Mint    []struct {
				BlockNumber json.Number `json:"blockNumber"`
			} `json:"mint"`
		} `json:"raffles"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchRaffleStarts returns one ref per raffle that has minted at least once.
func (s *GraphQLSource) FetchRaffleStarts(ctx context.Context) ([]model.RaffleRef, error) {
	body, err := json.Marshal(graphQLRequest{Query: firstMintQuery})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query subgraph: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read subgraph response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out graphQLResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("parse subgraph response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("subgraph error: %s", strings.Join(msgs, "; "))
	}
	if out.Data == nil || out.Data.Raffles == nil {
		return nil, fmt.Errorf("subgraph returned no raffles data")
	}

	refs := make([]model.RaffleRef, 0, len(out.Data.Raffles))
	for _, raffle := range out.Data.Raffles {
		if len(raffle.Mint) == 0 {
			continue
		}
		if !common.IsHexAddress(raffle.Address) {
			return nil, fmt.Errorf("invalid raffle address %q (id %s)", raffle.Address, raffle.ID)
		}
		block, err := strconv.ParseUint(raffle.Mint[0].BlockNumber.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mint block %q for %s: %w", raffle.Mint[0].BlockNumber, raffle.Address, err)
		}
		refs = append(refs, model.RaffleRef{
			Address:    common.HexToAddress(raffle.Address),
			StartBlock: block,
		})
	}

	s.logger.Info("raffles discovered", zap.Int("raffles", len(out.Data.Raffles)), zap.Int("minted", len(refs)))
	return refs, nil
}
