package wire

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pion/sdp/v3"
	"github.com/pkg/errors"
)

// EncodeDescription renders a codec list as an SDP session with a single
// media section. An empty list encodes to the empty string.
func EncodeDescription(media domain.MediaType, codecs []domain.Codec) (string, error) {
	if len(codecs) == 0 {
		return "", nil
	}
	sd, err := sdp.NewJSEPSessionDescription(false)
	if err != nil {
		return "", errors.Wrap(err, "new session description")
	}
	md := sdp.NewJSEPMediaDescription(media.String(), nil)
	for _, c := range codecs {
		if c.ID > 127 || c.Channels > math.MaxUint8 {
			return "", errors.Wrapf(domain.ErrInvalidArgument, "codec %s id %d channels %d", c.Name, c.ID, c.Channels)
		}
		md = md.WithCodec(uint8(c.ID), c.Name, c.ClockRate, uint16(c.Channels), encodeFmtp(c.Params))
	}
	raw, err := sd.WithMedia(md).Marshal()
	if err != nil {
		return "", errors.Wrapf(err, "marshal %s description", media)
	}
	return string(raw), nil
}

// DecodeDescription reads the codecs of the first media section, in format
// order.
func DecodeDescription(raw string) (domain.MediaType, []domain.Codec, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil, nil
	}
	var sd sdp.SessionDescription
	if err := sd.Unmarshal([]byte(raw)); err != nil {
		return 0, nil, errors.Wrapf(domain.ErrInvalidArgument, "sdp: %v", err)
	}
	if len(sd.MediaDescriptions) == 0 {
		return 0, nil, errors.Wrap(domain.ErrInvalidArgument, "sdp without media section")
	}
	md := sd.MediaDescriptions[0]
	media, err := domain.ParseMediaType(md.MediaName.Media)
	if err != nil {
		return 0, nil, err
	}
	codecs := make([]domain.Codec, 0, len(md.MediaName.Formats))
	for _, format := range md.MediaName.Formats {
		pt, err := strconv.ParseUint(format, 10, 8)
		if err != nil {
			return 0, nil, errors.Wrapf(domain.ErrInvalidArgument, "payload type %q", format)
		}
		c, err := sd.GetCodecForPayloadType(uint8(pt))
		if err != nil {
			return 0, nil, errors.Wrapf(domain.ErrInvalidArgument, "payload type %d: %v", pt, err)
		}
		codec := domain.Codec{
			ID:        uint32(c.PayloadType),
			Name:      c.Name,
			ClockRate: c.ClockRate,
			Params:    decodeFmtp(c.Fmtp),
		}
		if c.EncodingParameters != "" {
			ch, err := strconv.ParseUint(c.EncodingParameters, 10, 32)
			if err != nil {
				return 0, nil, errors.Wrapf(domain.ErrInvalidArgument, "channels %q", c.EncodingParameters)
			}
			codec.Channels = uint32(ch)
		}
		codecs = append(codecs, codec)
	}
	return media, codecs, nil
}

func encodeFmtp(params map[string]string) string {
	keys := slices.Sorted(maps.Keys(params))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, ";")
}

func decodeFmtp(fmtp string) map[string]string {
	if strings.TrimSpace(fmtp) == "" {
		return nil
	}
	params := map[string]string{}
	for _, part := range strings.Split(fmtp, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		params[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return params
}
