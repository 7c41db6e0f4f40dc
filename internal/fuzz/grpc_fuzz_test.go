package fuzz

import (
	"context"
	"testing"

	grpcserver "github.com/Billy-Davies-2/wordrush/internal/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// FuzzGRPCSubmit fuzzes the gRPC Submit endpoint
func FuzzGRPCSubmit(f *testing.F) {
	// Seed corpus
	f.Add("c1", "cat")
	f.Add("c1", "")
	f.Add("unknown", "TEAM")
	f.Add("c1", string(make([]byte, 10000)))

	f.Fuzz(func(t *testing.T, conn, word string) {
		reg, ps := newRegistry(t)
		server := grpcserver.NewServer(reg, ps)

		req, err := structpb.NewStruct(map[string]interface{}{
			"connectionId": conn,
			"word":         word,
		})
		if err != nil {
			// not valid UTF-8
			return
		}

		if _, err := server.Submit(context.Background(), req); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	})
}

// FuzzGRPCJoin fuzzes the gRPC Join endpoint
func FuzzGRPCJoin(f *testing.F) {
	f.Add("lobby", "bob", "c2")
	f.Add("", "", "")
	f.Add("lobby", "ann", "c1")

	f.Fuzz(func(t *testing.T, room, name, conn string) {
		reg, ps := newRegistry(t)
		server := grpcserver.NewServer(reg, ps)

		req, err := structpb.NewStruct(map[string]interface{}{
			"room":         room,
			"name":         name,
			"connectionId": conn,
		})
		if err != nil {
			return
		}

		_, _ = server.Join(context.Background(), req)
	})
}
