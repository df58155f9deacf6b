// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// Package lightnode provides the minimal on-demand-retrieval surface a
// verifier needs to check a membership or non-membership proof without
// holding a local copy of the ledger: the parameter document and a
// single block header, both fetched asynchronously from a remote peer.
package lightnode

import (
	"context"
	"errors"

	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/storage"
)

// NoOdr is the context passed when the caller has no deadline or
// cancellation signal of its own.
var NoOdr = context.Background()

// ErrNoPeers is returned when no peer capable of serving the request
// is currently reachable.
var ErrNoPeers = errors.New("lightnode: no suitable peers available")

// Transport is the retrieval capability a Client needs from the
// network layer: fetch the two record kinds a verifier ever asks for.
type Transport interface {
	FetchParameter(ctx context.Context) (storage.Parameter, error)
	FetchBlockHeader(ctx context.Context, id uint64) (block.BlockHeader, error)
}

// Client is the light-node verifier's read surface, backed by a
// Transport rather than a local storage.Database.
type Client struct {
	Transport Transport
}

// New constructs a Client backed by transport.
func New(transport Transport) *Client {
	return &Client{Transport: transport}
}

// GetParameter asynchronously retrieves the remote ledger's parameter
// document.
func (c *Client) GetParameter(ctx context.Context) (storage.Parameter, error) {
	return c.Transport.FetchParameter(ctx)
}

// ReadBlockHeader asynchronously retrieves block id's header from the
// remote ledger, the only per-block data a membership or
// non-membership proof needs to check against.
func (c *Client) ReadBlockHeader(ctx context.Context, id uint64) (block.BlockHeader, error) {
	return c.Transport.FetchBlockHeader(ctx, id)
}
