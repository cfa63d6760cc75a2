package proto

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"tsumego_exe/internal/domain/tsumego"
)

// AnalyzeRequest is the payload of AnalysisService.Analyze.
type AnalyzeRequest struct {
	Collection string               `json:"collection"`
	Wide       bool                 `json:"wide"`
	State      tsumego.PositionJSON `json:"state"`
	RequestID  string               `json:"requestId,omitempty"`
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err = protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return fmt.Errorf("decode struct: empty message")
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	return nil
}

func NewAnalyzeRequest(req AnalyzeRequest) (*structpb.Struct, error) {
	return toStruct(req)
}

func ParseAnalyzeRequest(in *structpb.Struct) (AnalyzeRequest, error) {
	var req AnalyzeRequest
	err := fromStruct(in, &req)
	return req, err
}

func NewAnalyzeResponse(result tsumego.AnalysisResult) (*structpb.Struct, error) {
	return toStruct(result)
}

func ParseAnalyzeResponse(in *structpb.Struct) (tsumego.AnalysisResult, error) {
	var result tsumego.AnalysisResult
	err := fromStruct(in, &result)
	return result, err
}
