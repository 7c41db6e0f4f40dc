package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/game"
	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements the gRPC GameService
type Server struct {
	registry *game.Registry
	pubsub   *pubsub.PubSub
	now      func() time.Time
}

// NewServer creates a new gRPC server
func NewServer(registry *game.Registry, ps *pubsub.PubSub) *Server {
	return &Server{
		registry: registry,
		pubsub:   ps,
		now:      time.Now,
	}
}

// Join adds a connection to a room. Request fields: room, name and an optional
// connectionId; a new one is issued when it is missing. Whoever holds the
// connectionId acts for that seat, so it belongs on a trusted channel only.
func (s *Server) Join(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	room := field(req, "room")
	connID := field(req, "connectionId")
	if connID == "" {
		connID = uuid.NewString()
	}

	logger.Debug("gRPC: Joining room", "room", room, "conn", connID)
	sessionID, err := s.registry.Join(room, connID, field(req, "name"))
	if err != nil {
		return nil, toStatus(err)
	}
	state, err := s.registry.State(room)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(map[string]interface{}{
		"sessionId":    sessionID,
		"connectionId": connID,
		"state":        state,
	})
}

// Submit files a claim. The reply never says whether the claim won.
func (s *Server) Submit(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	at := s.now()
	s.registry.Submit(field(req, "connectionId"), field(req, "word"), at)
	return &emptypb.Empty{}, nil
}

// Leave removes a connection from its room
func (s *Server) Leave(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	s.registry.Leave(field(req, "connectionId"))
	return &emptypb.Empty{}, nil
}

// StartRound restarts the round in a room
func (s *Server) StartRound(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	room := field(req, "room")
	logger.Info("gRPC: Restarting round", "room", room)
	if err := s.registry.StartRound(room); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// GetState returns the public state of a room
func (s *Server) GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	state, err := s.registry.State(field(req, "room"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(state)
}

// StreamEvents streams room events, limited to one room when the request
// names it
func (s *Server) StreamEvents(req *structpb.Struct, stream GameService_StreamEventsServer) error {
	room := field(req, "room")
	logger.Debug("gRPC: New client connected to event stream", "room", room)
	eventChan := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(eventChan)

	for {
		select {
		case event := <-eventChan:
			if room != "" && event.Room != room {
				continue
			}
			msg, err := toStruct(event)
			if err != nil {
				logger.Warn("gRPC: Failed to encode event", "error", err, "type", event.Type)
				continue
			}
			if err := stream.Send(msg); err != nil {
				logger.Error("gRPC: Failed to send event to stream", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

func field(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[name].GetStringValue()
}

// toStruct converts any JSON-encodable value into a Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, game.ErrInvalidRoom), errors.Is(err, game.ErrInvalidName):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, fmt.Sprintf("game: %v", err))
}
