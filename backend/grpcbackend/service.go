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

// Package grpcbackend lets the render graph core talk to a backend that
// lives in a separate process, the way gapir/client talks to the
// separate gapir replay device over gRPC. Rather than a generated
// .proto/.pb.go pair (no protoc codegen step is available here), every
// RPC carries its payload as a google.golang.org/protobuf/types/known/
// structpb.Struct, the same "schema-less but still real protobuf"
// approach gapis/database uses to persist arbitrary blobs.
package grpcbackend

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/render-foundation/graph/backend"
)

const serviceName = "rendergraph.Backend"

var methodCreateImage = serviceName + "/CreateImage"
var methodDestroyImage = serviceName + "/DestroyImage"
var methodCreateFrameBuffer = serviceName + "/CreateFrameBuffer"
var methodDestroyFrameBuffer = serviceName + "/DestroyFrameBuffer"
var methodCreateCheckpoint = serviceName + "/CreateCheckpoint"
var methodAddDependency = serviceName + "/AddDependency"
var methodBeginNextFrame = serviceName + "/BeginNextFrame"
var methodEnumerateDevices = serviceName + "/EnumerateDevices"
var methodSelectDevice = serviceName + "/SelectDevice"
var methodSelectedDeviceInfo = serviceName + "/SelectedDeviceInfo"

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "grpcbackend: encoding request")
	}
	return s, nil
}

func descriptionToFields(d backend.ImageDescription) map[string]interface{} {
	return map[string]interface{}{
		"format":           float64(d.Format),
		"width":            float64(d.Width),
		"height":           float64(d.Height),
		"depth":            float64(d.Depth),
		"layers":           float64(d.Layers),
		"mips":             float64(d.Mips),
		"renderTarget":     d.RenderTarget,
		"supportsSampling": d.SupportsSampling,
		"trackingName":     d.TrackingName,
	}
}

func fieldsToDescription(s *structpb.Struct) backend.ImageDescription {
	f := s.GetFields()
	return backend.ImageDescription{
		Format:           backend.ImageFormat(f["format"].GetNumberValue()),
		Width:            uint32(f["width"].GetNumberValue()),
		Height:           uint32(f["height"].GetNumberValue()),
		Depth:            uint32(f["depth"].GetNumberValue()),
		Layers:           uint32(f["layers"].GetNumberValue()),
		Mips:             uint32(f["mips"].GetNumberValue()),
		RenderTarget:     f["renderTarget"].GetBoolValue(),
		SupportsSampling: f["supportsSampling"].GetBoolValue(),
		TrackingName:     f["trackingName"].GetStringValue(),
	}
}

func attachmentsToFields(contextHandle backend.ContextHandle, pass backend.PassHandle, attachments []backend.Attachment) map[string]interface{} {
	list := make([]interface{}, len(attachments))
	for i, a := range attachments {
		list[i] = map[string]interface{}{
			"image": float64(a.Image),
			"layer": float64(a.Layer),
		}
	}
	return map[string]interface{}{
		"context":     float64(contextHandle),
		"pass":        float64(pass),
		"attachments": list,
	}
}

func fieldsToAttachments(s *structpb.Struct) (backend.ContextHandle, backend.PassHandle, []backend.Attachment) {
	f := s.GetFields()
	rc := backend.ContextHandle(f["context"].GetNumberValue())
	pass := backend.PassHandle(f["pass"].GetNumberValue())
	list := f["attachments"].GetListValue().GetValues()
	out := make([]backend.Attachment, len(list))
	for i, v := range list {
		af := v.GetStructValue().GetFields()
		out[i] = backend.Attachment{
			Image: backend.ImageHandle(af["image"].GetNumberValue()),
			Layer: uint32(af["layer"].GetNumberValue()),
		}
	}
	return rc, pass, out
}

var errRPCFailed = errors.New("grpcbackend: remote call returned no result")
