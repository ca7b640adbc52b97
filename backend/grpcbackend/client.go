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
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/render-foundation/graph/backend"
)

// Client is a backend.Backend that forwards every call as a gRPC
// request to a remote rendergraph.Backend service, mirroring how
// gapir/client.connection wraps a *grpc.ClientConn behind gapir's own
// backend-shaped interface.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a remote backend at addr. Matches gapir/client's
// newConnection: a bounded dial timeout and an unencrypted transport,
// since the remote renderer is assumed to run on a trusted local link.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, addr, grpc.WithInsecure(), grpc.WithBlock())
	if err != nil {
		return nil, errors.Wrap(err, "grpcbackend: dialing remote backend")
	}
	return &Client{conn: conn}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, errors.Wrapf(err, "grpcbackend: calling %s", method)
	}
	return resp, nil
}

// CreateImage implements backend.Backend.
func (c *Client) CreateImage(ctx context.Context, rc backend.ContextHandle, description backend.ImageDescription) (backend.ImageHandle, error) {
	fields := descriptionToFields(description)
	fields["context"] = float64(rc)
	req, err := newStruct(fields)
	if err != nil {
		return backend.InvalidImageHandle, err
	}
	resp, err := c.call(ctx, methodCreateImage, req)
	if err != nil {
		return backend.InvalidImageHandle, err
	}
	handle := backend.ImageHandle(resp.GetFields()["image"].GetNumberValue())
	if handle == backend.InvalidImageHandle {
		return backend.InvalidImageHandle, errRPCFailed
	}
	return handle, nil
}

// DestroyImage implements backend.Backend.
func (c *Client) DestroyImage(ctx context.Context, rc backend.ContextHandle, handle backend.ImageHandle) error {
	req, err := newStruct(map[string]interface{}{"context": float64(rc), "image": float64(handle)})
	if err != nil {
		return err
	}
	_, err = c.call(ctx, methodDestroyImage, req)
	return err
}

// CreateFrameBuffer implements backend.Backend.
func (c *Client) CreateFrameBuffer(ctx context.Context, rc backend.ContextHandle, pass backend.PassHandle, attachments []backend.Attachment) (backend.FrameBufferHandle, error) {
	req, err := newStruct(attachmentsToFields(rc, pass, attachments))
	if err != nil {
		return backend.InvalidFrameBufferHandle, err
	}
	resp, err := c.call(ctx, methodCreateFrameBuffer, req)
	if err != nil {
		return backend.InvalidFrameBufferHandle, err
	}
	handle := backend.FrameBufferHandle(resp.GetFields()["frameBuffer"].GetNumberValue())
	if handle == backend.InvalidFrameBufferHandle {
		return backend.InvalidFrameBufferHandle, errRPCFailed
	}
	return handle, nil
}

// DestroyFrameBuffer implements backend.Backend.
func (c *Client) DestroyFrameBuffer(ctx context.Context, rc backend.ContextHandle, handle backend.FrameBufferHandle) error {
	req, err := newStruct(map[string]interface{}{"context": float64(rc), "frameBuffer": float64(handle)})
	if err != nil {
		return err
	}
	_, err = c.call(ctx, methodDestroyFrameBuffer, req)
	return err
}

// CreateCheckpoint implements backend.Backend.
func (c *Client) CreateCheckpoint(ctx context.Context, rc backend.ContextHandle) (backend.CheckpointHandle, error) {
	req, err := newStruct(map[string]interface{}{"context": float64(rc)})
	if err != nil {
		return backend.InvalidCheckpointHandle, err
	}
	resp, err := c.call(ctx, methodCreateCheckpoint, req)
	if err != nil {
		return backend.InvalidCheckpointHandle, err
	}
	return backend.CheckpointHandle(resp.GetFields()["checkpoint"].GetNumberValue()), nil
}

// AddDependency implements backend.Backend.
func (c *Client) AddDependency(ctx context.Context, rc backend.ContextHandle, later, earlier backend.CheckpointHandle) error {
	req, err := newStruct(map[string]interface{}{
		"context": float64(rc),
		"later":   float64(later),
		"earlier": float64(earlier),
	})
	if err != nil {
		return err
	}
	_, err = c.call(ctx, methodAddDependency, req)
	return err
}

// BeginNextFrame implements backend.Backend.
func (c *Client) BeginNextFrame(ctx context.Context, rc backend.ContextHandle) (bool, error) {
	req, err := newStruct(map[string]interface{}{"context": float64(rc)})
	if err != nil {
		return false, err
	}
	resp, err := c.call(ctx, methodBeginNextFrame, req)
	if err != nil {
		return false, err
	}
	return resp.GetFields()["scheduled"].GetBoolValue(), nil
}

// EnumerateDevices implements backend.Backend.
func (c *Client) EnumerateDevices(ctx context.Context) ([]backend.DeviceInfo, error) {
	req, err := newStruct(map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, methodEnumerateDevices, req)
	if err != nil {
		return nil, err
	}
	list := resp.GetFields()["devices"].GetListValue().GetValues()
	out := make([]backend.DeviceInfo, len(list))
	for i, v := range list {
		f := v.GetStructValue().GetFields()
		out[i] = backend.DeviceInfo{
			ID:   backend.DeviceID(f["id"].GetNumberValue()),
			Name: f["name"].GetStringValue(),
			Type: backend.DeviceType(f["type"].GetNumberValue()),
		}
	}
	return out, nil
}

// SelectDevice implements backend.Backend.
func (c *Client) SelectDevice(ctx context.Context, id backend.DeviceID) (backend.ContextHandle, error) {
	req, err := newStruct(map[string]interface{}{"id": float64(id)})
	if err != nil {
		return backend.InvalidContextHandle, err
	}
	resp, err := c.call(ctx, methodSelectDevice, req)
	if err != nil {
		return backend.InvalidContextHandle, err
	}
	return backend.ContextHandle(resp.GetFields()["context"].GetNumberValue()), nil
}

// SelectedDeviceInfo implements backend.Backend.
func (c *Client) SelectedDeviceInfo(ctx context.Context, rc backend.ContextHandle) (backend.DeviceInfo, bool) {
	req, err := newStruct(map[string]interface{}{"context": float64(rc)})
	if err != nil {
		return backend.DeviceInfo{}, false
	}
	resp, err := c.call(ctx, methodSelectedDeviceInfo, req)
	if err != nil {
		return backend.DeviceInfo{}, false
	}
	f := resp.GetFields()
	if !f["found"].GetBoolValue() {
		return backend.DeviceInfo{}, false
	}
	return backend.DeviceInfo{
		ID:   backend.DeviceID(f["id"].GetNumberValue()),
		Name: f["name"].GetStringValue(),
		Type: backend.DeviceType(f["type"].GetNumberValue()),
	}, true
}
