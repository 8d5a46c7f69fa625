package natsctl

import (
	"context"
	"encoding/json"
	"fmt"

	merrors "github.com/asim/go-micro/v3/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dh1tw/plughost/control"
	"github.com/dh1tw/plughost/events"
)

// ControlRequest sets the value of a control port. It is the JSON form of
// the Struct sent to Host.SetControl.
type ControlRequest struct {
	Ref   string   `json:"ref"`
	Value *float32 `json:"value"`
}

// Host serves the operations of control.Host as go-micro endpoints.
// Structured requests and replies are structpb messages holding the JSON
// form of the control types; failures are go-micro errors carrying the
// HTTP status code of the error.
type Host struct {
	name string
	host *control.Host
}

// Engine returns the control.EngineInfo.
func (h *Host) Engine(ctx context.Context, req *emptypb.Empty, rsp *structpb.Struct) error {
	return h.encode(h.host.Engine(), rsp)
}

// Plugins returns the control.PluginList.
func (h *Host) Plugins(ctx context.Context, req *emptypb.Empty, rsp *structpb.Struct) error {
	return h.encode(h.host.Plugins(), rsp)
}

// Nodes returns the list of control.NodeInfo.
func (h *Host) Nodes(ctx context.Context, req *emptypb.Empty, rsp *structpb.ListValue) error {
	return h.encode(h.host.Nodes(), rsp)
}

// Node returns the control.NodeInfo of the node with the requested id.
func (h *Host) Node(ctx context.Context, req *wrapperspb.StringValue, rsp *structpb.Struct) error {
	n, err := h.host.Node(req.GetValue())
	if err != nil {
		return h.fail(err)
	}
	return h.encode(n, rsp)
}

// CreateNode takes a control.CreateNode and returns the new node.
func (h *Host) CreateNode(ctx context.Context, req *structpb.Struct, rsp *structpb.Struct) error {
	var cn control.CreateNode
	if err := h.decode(req, &cn); err != nil {
		return err
	}
	n, err := h.host.CreateNode(cn)
	if err != nil {
		return h.fail(err)
	}
	return h.encode(n, rsp)
}

func (h *Host) RemoveNode(ctx context.Context, req *wrapperspb.StringValue, rsp *emptypb.Empty) error {
	return h.fail(h.host.RemoveNode(req.GetValue()))
}

// Routes returns the list of control.RouteInfo.
func (h *Host) Routes(ctx context.Context, req *emptypb.Empty, rsp *structpb.ListValue) error {
	return h.encode(h.host.Routes(), rsp)
}

// Connect takes a control.RouteInfo.
func (h *Host) Connect(ctx context.Context, req *structpb.Struct, rsp *emptypb.Empty) error {
	var r control.RouteInfo
	if err := h.decode(req, &r); err != nil {
		return err
	}
	return h.fail(h.host.Connect(r))
}

// Disconnect takes a control.RouteInfo.
func (h *Host) Disconnect(ctx context.Context, req *structpb.Struct, rsp *emptypb.Empty) error {
	var r control.RouteInfo
	if err := h.decode(req, &r); err != nil {
		return err
	}
	return h.fail(h.host.Disconnect(r))
}

// Control returns the value of the control port with the requested
// reference.
func (h *Host) Control(ctx context.Context, req *wrapperspb.StringValue, rsp *wrapperspb.FloatValue) error {
	v, err := h.host.Control(req.GetValue())
	if err != nil {
		return h.fail(err)
	}
	rsp.Value = v
	return nil
}

// SetControl takes a ControlRequest.
func (h *Host) SetControl(ctx context.Context, req *structpb.Struct, rsp *emptypb.Empty) error {
	var cr ControlRequest
	if err := h.decode(req, &cr); err != nil {
		return err
	}
	return h.fail(h.host.SetControl(cr.Ref, control.ControlValue{Value: cr.Value}))
}

// URIs returns the list of control.URIInfo.
func (h *Host) URIs(ctx context.Context, req *emptypb.Empty, rsp *structpb.ListValue) error {
	return h.encode(h.host.URIs(), rsp)
}

// MapURI returns the control.URIInfo of the requested uri.
func (h *Host) MapURI(ctx context.Context, req *wrapperspb.StringValue, rsp *structpb.Struct) error {
	u, err := h.host.MapURI(req.GetValue())
	if err != nil {
		return h.fail(err)
	}
	return h.encode(u, rsp)
}

// UnmapURI returns the control.URIInfo of the requested id.
func (h *Host) UnmapURI(ctx context.Context, req *wrapperspb.UInt32Value, rsp *structpb.Struct) error {
	u, err := h.host.UnmapURI(req.GetValue())
	if err != nil {
		return h.fail(err)
	}
	return h.encode(u, rsp)
}

func (h *Host) fail(err error) error {
	if err == nil {
		return nil
	}
	return merrors.New(h.name, err.Error(), int32(control.StatusCode(err)))
}

func (h *Host) encode(v interface{}, rsp proto.Message) error {
	if err := toMessage(v, rsp); err != nil {
		return merrors.InternalServerError(h.name, "unable to encode reply: %v", err)
	}
	return nil
}

func (h *Host) decode(req proto.Message, v interface{}) error {
	if err := fromMessage(req, v); err != nil {
		return h.fail(fmt.Errorf("%w: %v", control.ErrBadRequest, err))
	}
	return nil
}

// EncodeEvent returns the wire form of ev: a protobuf encoded
// structpb.Struct holding the JSON fields of the event.
func EncodeEvent(ev events.Event) ([]byte, error) {
	var st structpb.Struct
	if err := toMessage(ev, &st); err != nil {
		return nil, err
	}
	return proto.Marshal(&st)
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(data []byte) (events.Event, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return events.Event{}, err
	}
	var ev events.Event
	err := fromMessage(&st, &ev)
	return ev, err
}

// toMessage stores the JSON form of v in m, which has to be a Struct or
// ListValue.
func toMessage(v interface{}, m proto.Message) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if string(data) == "null" {
		proto.Reset(m)
		return nil
	}
	return protojson.Unmarshal(data, m)
}

func fromMessage(m proto.Message, v interface{}) error {
	data, err := protojson.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
