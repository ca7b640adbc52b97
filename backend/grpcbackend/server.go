// Copyright (C) 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grpcbackend

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/render-foundation/graph/backend"
)

// Server adapts any backend.Backend implementation into the
// rendergraph.Backend gRPC service, so a real GPU binding can run out of
// process and be reached through Client.
type Server struct {
	backend backend.Backend
}

// NewServer wraps impl for remote access.
func NewServer(impl backend.Backend) *Server {
	return &Server{backend: impl}
}

// Register attaches the service to s, in the same spirit as a generated
// RegisterGapirServer call.
func (srv *Server) Register(s *grpc.Server) {
	s.RegisterService(&serviceDesc, srv)
}

func decodeStruct(dec func(interface{}) error) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if err := dec(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (srv *Server) handleCreateImage(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	rc := backend.ContextHandle(req.GetFields()["context"].GetNumberValue())
	description := fieldsToDescription(req)
	handle, err := srv.backend.CreateImage(ctx, rc, description)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{"image": float64(handle)})
}

func (srv *Server) handleDestroyImage(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	f := req.GetFields()
	rc := backend.ContextHandle(f["context"].GetNumberValue())
	handle := backend.ImageHandle(f["image"].GetNumberValue())
	if err := srv.backend.DestroyImage(ctx, rc, handle); err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{})
}

func (srv *Server) handleCreateFrameBuffer(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	rc, pass, attachments := fieldsToAttachments(req)
	handle, err := srv.backend.CreateFrameBuffer(ctx, rc, pass, attachments)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{"frameBuffer": float64(handle)})
}

func (srv *Server) handleDestroyFrameBuffer(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	f := req.GetFields()
	rc := backend.ContextHandle(f["context"].GetNumberValue())
	handle := backend.FrameBufferHandle(f["frameBuffer"].GetNumberValue())
	if err := srv.backend.DestroyFrameBuffer(ctx, rc, handle); err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{})
}

func (srv *Server) handleCreateCheckpoint(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	rc := backend.ContextHandle(req.GetFields()["context"].GetNumberValue())
	handle, err := srv.backend.CreateCheckpoint(ctx, rc)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{"checkpoint": float64(handle)})
}

func (srv *Server) handleAddDependency(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	f := req.GetFields()
	rc := backend.ContextHandle(f["context"].GetNumberValue())
	later := backend.CheckpointHandle(f["later"].GetNumberValue())
	earlier := backend.CheckpointHandle(f["earlier"].GetNumberValue())
	if err := srv.backend.AddDependency(ctx, rc, later, earlier); err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{})
}

func (srv *Server) handleBeginNextFrame(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	rc := backend.ContextHandle(req.GetFields()["context"].GetNumberValue())
	scheduled, err := srv.backend.BeginNextFrame(ctx, rc)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{"scheduled": scheduled})
}

func (srv *Server) handleEnumerateDevices(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	if _, err := decodeStruct(dec); err != nil {
		return nil, err
	}
	devices, err := srv.backend.EnumerateDevices(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]interface{}, len(devices))
	for i, d := range devices {
		list[i] = map[string]interface{}{
			"id":   float64(d.ID),
			"name": d.Name,
			"type": float64(d.Type),
		}
	}
	return newStruct(map[string]interface{}{"devices": list})
}

func (srv *Server) handleSelectDevice(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	id := backend.DeviceID(req.GetFields()["id"].GetNumberValue())
	rc, err := srv.backend.SelectDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]interface{}{"context": float64(rc)})
}

func (srv *Server) handleSelectedDeviceInfo(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req, err := decodeStruct(dec)
	if err != nil {
		return nil, err
	}
	rc := backend.ContextHandle(req.GetFields()["context"].GetNumberValue())
	info, ok := srv.backend.SelectedDeviceInfo(ctx, rc)
	if !ok {
		return newStruct(map[string]interface{}{"found": false})
	}
	return newStruct(map[string]interface{}{
		"found": true,
		"id":    float64(info.ID),
		"name":  info.Name,
		"type":  float64(info.Type),
	})
}

// serviceDesc hand-describes the rendergraph.Backend service without a
// .proto/protoc codegen step: every payload is a structpb.Struct, so no
// generated message types are required (see service.go).
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateImage", Handler: unaryHandler((*Server).handleCreateImage)},
		{MethodName: "DestroyImage", Handler: unaryHandler((*Server).handleDestroyImage)},
		{MethodName: "CreateFrameBuffer", Handler: unaryHandler((*Server).handleCreateFrameBuffer)},
		{MethodName: "DestroyFrameBuffer", Handler: unaryHandler((*Server).handleDestroyFrameBuffer)},
		{MethodName: "CreateCheckpoint", Handler: unaryHandler((*Server).handleCreateCheckpoint)},
		{MethodName: "AddDependency", Handler: unaryHandler((*Server).handleAddDependency)},
		{MethodName: "BeginNextFrame", Handler: unaryHandler((*Server).handleBeginNextFrame)},
		{MethodName: "EnumerateDevices", Handler: unaryHandler((*Server).handleEnumerateDevices)},
		{MethodName: "SelectDevice", Handler: unaryHandler((*Server).handleSelectDevice)},
		{MethodName: "SelectedDeviceInfo", Handler: unaryHandler((*Server).handleSelectedDeviceInfo)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rendergraph/backend.proto",
}

// unaryHandler adapts one of Server's methods into a grpc.methodHandler,
// applying any interceptor the server was configured with.
func unaryHandler(fn func(srv *Server, ctx context.Context, dec func(interface{}) error) (interface{}, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		s := srv.(*Server)
		if interceptor == nil {
			return fn(s, ctx, dec)
		}
		info := &grpc.UnaryServerInfo{Server: s}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(s, ctx, dec)
		}
		return interceptor(ctx, nil, info, handler)
	}
}
