package protocol

import (
	"io"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/pkg/protoutil"
	"google.golang.org/protobuf/types/known/structpb"
)

func WriteRequest(w io.Writer, req message.Request) error {
	pb, err := RequestToStruct(req)
	if err != nil {
		return err
	}
	return protoutil.EncodeToWriter(w, pb)
}

func ReadRequest(r io.Reader) (message.Request, error) {
	var pb structpb.Struct
	if err := protoutil.DecodeReader(r, &pb); err != nil {
		return message.Request{}, err
	}
	return StructToRequest(&pb)
}

func WriteResponse(w io.Writer, resp message.Response) error {
	pb, err := ResponseToStruct(resp)
	if err != nil {
		return err
	}
	return protoutil.EncodeToWriter(w, pb)
}

func ReadResponse(r io.Reader) (message.Response, error) {
	var pb structpb.Struct
	if err := protoutil.DecodeReader(r, &pb); err != nil {
		return message.Response{}, err
	}
	return StructToResponse(&pb)
}
