// Package decoder turns raw EVM logs into the typed events the aggregation
// engine consumes.
package decoder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/subgraph"
)

// ErrUnknownEvent marks a log whose topic0 is not one of ours. Callers
// filter on Topics so this mostly signals a filter mismatch.
type ErrUnknownEvent struct {
	Topic string
}

func (e ErrUnknownEvent) Error() string {
	return "unknown event topic: " + e.Topic
}

type ErrEventParsing struct {
	Event string
	Err   error
}

func (e ErrEventParsing) Error() string {
	return "failed to parse event " + e.Event + ": " + e.Err.Error()
}

// Decoder resolves logs by topic0 against the factory and pool ABIs.
type Decoder struct {
	events map[common.Hash]*abi.Event
}

func New() (*Decoder, error) {
	d := &Decoder{events: make(map[common.Hash]*abi.Event)}

	for _, raw := range []string{FactoryABI, PoolABI} {
		parsed, err := abi.JSON(strings.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI: %w", err)
		}
		for name := range parsed.Events {
			event := parsed.Events[name]
			d.events[event.ID] = &event
		}
	}
	return d, nil
}

// Topics returns every event signature hash the decoder understands, for
// use in a log filter query.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.events))
	for topic := range d.events {
		topics = append(topics, topic)
	}
	return topics
}

// Decode parses a single log into a typed event. The block timestamp is
// not carried by logs and must be supplied by the caller.
func (d *Decoder) Decode(log *types.Log, timestamp int64) (subgraph.Event, error) {
	if len(log.Topics) == 0 {
		return nil, ErrUnknownEvent{Topic: ""}
	}
	eventABI, ok := d.events[log.Topics[0]]
	if !ok {
		return nil, ErrUnknownEvent{Topic: log.Topics[0].Hex()}
	}

	args, err := unpackArgs(eventABI, log)
	if err != nil {
		return nil, ErrEventParsing{Event: eventABI.Name, Err: err}
	}

	meta := subgraph.EventMeta{
		Address:     strings.ToLower(log.Address.Hex()),
		BlockNumber: log.BlockNumber,
		Timestamp:   timestamp,
		TxHash:      strings.ToLower(log.TxHash.Hex()),
	}

	switch eventABI.Name {
	case "PoolCreated":
		return subgraph.PoolCreatedEvent{
			EventMeta: meta,
			Token0:    args.address("token0"),
			Token1:    args.address("token1"),
			FeeTier:   args.bigInt("fee").Int64(),
			Pool:      args.address("pool"),
		}, nil
	case "Initialize":
		return subgraph.InitializeEvent{
			EventMeta:    meta,
			SqrtPriceX96: args.bigInt("sqrtPriceX96"),
			Tick:         args.bigInt("tick").Int64(),
		}, nil
	case "Mint":
		return subgraph.MintEvent{
			EventMeta: meta,
			Owner:     args.address("owner"),
			TickLower: args.bigInt("tickLower").Int64(),
			TickUpper: args.bigInt("tickUpper").Int64(),
			Amount:    args.bigInt("amount"),
			Amount0:   args.bigInt("amount0"),
			Amount1:   args.bigInt("amount1"),
		}, nil
	case "Burn":
		return subgraph.BurnEvent{
			EventMeta: meta,
			Owner:     args.address("owner"),
			TickLower: args.bigInt("tickLower").Int64(),
			TickUpper: args.bigInt("tickUpper").Int64(),
			Amount:    args.bigInt("amount"),
			Amount0:   args.bigInt("amount0"),
			Amount1:   args.bigInt("amount1"),
		}, nil
	case "Swap":
		return subgraph.SwapEvent{
			EventMeta:    meta,
			Sender:       args.address("sender"),
			Recipient:    args.address("recipient"),
			Amount0:      args.bigInt("amount0"),
			Amount1:      args.bigInt("amount1"),
			SqrtPriceX96: args.bigInt("sqrtPriceX96"),
			Liquidity:    args.bigInt("liquidity"),
			Tick:         args.bigInt("tick").Int64(),
		}, nil
	case "Flash":
		return subgraph.FlashEvent{
			EventMeta: meta,
			Sender:    args.address("sender"),
			Recipient: args.address("recipient"),
			Amount0:   args.bigInt("amount0"),
			Amount1:   args.bigInt("amount1"),
			Paid0:     args.bigInt("paid0"),
			Paid1:     args.bigInt("paid1"),
		}, nil
	default:
		return nil, ErrUnknownEvent{Topic: log.Topics[0].Hex()}
	}
}

type argMap map[string]interface{}

func (a argMap) address(name string) string {
	if addr, ok := a[name].(common.Address); ok {
		return strings.ToLower(addr.Hex())
	}
	return ""
}

func (a argMap) bigInt(name string) *big.Int {
	if v, ok := a[name].(*big.Int); ok {
		return v
	}
	return new(big.Int)
}

func unpackArgs(eventABI *abi.Event, log *types.Log) (argMap, error) {
	args := make(argMap)

	topicIndex := 1
	for _, input := range eventABI.Inputs {
		if !input.Indexed {
			continue
		}
		if topicIndex >= len(log.Topics) {
			return nil, fmt.Errorf("missing topic for indexed arg %s", input.Name)
		}
		args[input.Name] = parseIndexedArg(log.Topics[topicIndex], input.Type)
		topicIndex++
	}

	nonIndexed := make(abi.Arguments, 0, len(eventABI.Inputs))
	for _, input := range eventABI.Inputs {
		if !input.Indexed {
			nonIndexed = append(nonIndexed, input)
		}
	}
	if len(nonIndexed) > 0 {
		values, err := nonIndexed.Unpack(log.Data)
		if err != nil {
			return nil, err
		}
		for i, input := range nonIndexed {
			if i < len(values) {
				args[input.Name] = values[i]
			}
		}
	}
	return args, nil
}

var twoPow256 = new(big.Int).Lsh(big.NewInt(1), 256)

// parseIndexedArg converts a topic word to its Go value. Signed integer
// topics are 256-bit two's complement regardless of the declared width, so
// negative ticks need the wrap-around undone.
func parseIndexedArg(topic common.Hash, argType abi.Type) interface{} {
	switch argType.T {
	case abi.AddressTy:
		return common.HexToAddress(topic.Hex())
	case abi.IntTy:
		v := new(big.Int).SetBytes(topic.Bytes())
		if v.Bit(255) == 1 {
			v.Sub(v, twoPow256)
		}
		return v
	case abi.UintTy:
		return new(big.Int).SetBytes(topic.Bytes())
	case abi.BoolTy:
		return topic.Big().Sign() != 0
	case abi.BytesTy, abi.FixedBytesTy:
		return topic.Bytes()
	default:
		return topic.Hex()
	}
}
