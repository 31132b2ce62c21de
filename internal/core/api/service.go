// Package api implements the gRPC Warehouse service over an assembly.Assembler.
package api

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/solatis/stemkeeper/internal/core/assembly"
	"github.com/solatis/stemkeeper/internal/records"
	"github.com/solatis/stemkeeper/internal/types"
)

// WarehouseService feeds stems received over gRPC into one Assembler.
// Concurrent calls are serialized by the Assembler.
type WarehouseService struct {
	assembler *assembly.Assembler
}

var _ WarehouseServer = (*WarehouseService)(nil)

// NewWarehouseService creates the service. The assembler must already be open.
func NewWarehouseService(a *assembly.Assembler) (*WarehouseService, error) {
	if a == nil {
		return nil, fmt.Errorf("assembler cannot be nil")
	}
	return &WarehouseService{assembler: a}, nil
}

// AddStem parses one stem record and runs it through the engine. The
// response holds the bouquet record, or "" when none was assembled.
func (s *WarehouseService) AddStem(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	stem, err := records.ParseStem(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.assembler.Feed(ctx, stem)
	if err != nil {
		return nil, statusFromError(err)
	}
	if !res.Assembled() {
		return wrapperspb.String(""), nil
	}
	return wrapperspb.String(records.FormatBouquet(res.Bouquet)), nil
}

// GetStock reports per-species counters of one pool, keyed by species
// symbol. Species with neither stock nor ceiling are omitted.
func (s *WarehouseService) GetStock(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	v := req.GetValue()
	if len(v) != 1 {
		return nil, status.Errorf(codes.InvalidArgument, "size must be S or L, got %q", v)
	}
	size, err := types.ParseSizeClass(v[0])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	snap, err := s.assembler.Snapshot(size)
	if err != nil {
		return nil, statusFromError(err)
	}

	fields := make(map[string]any)
	for i := range snap.Stock {
		if snap.Stock[i] == 0 && snap.Ceiling[i] == 0 {
			continue
		}
		fields[types.Species(i).String()] = map[string]any{
			"stock":   snap.Stock[i],
			"active":  snap.Active[i],
			"ceiling": snap.Ceiling[i],
		}
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func statusFromError(err error) error {
	switch {
	case errors.Is(err, assembly.ErrHalted), errors.Is(err, types.ErrPoolNotReady):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, types.ErrInvalidSize), errors.Is(err, types.ErrInvalidSpecies):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
