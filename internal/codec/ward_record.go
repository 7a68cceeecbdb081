package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"housingsweep/internal/model"
)

// Housing ward record layout, little-endian
const (
	landIdentSize  = 8
	plotEntrySize  = 40
	trailerSize    = 4
	plotPriceSize  = 4
	plotFlagOffset = plotPriceSize

	// WardRecordSize is the full size of one housing ward record
	WardRecordSize = landIdentSize + model.PlotsPerWard*plotEntrySize + trailerSize // 2664
)

// ErrMalformedRecord is returned when a buffer cannot hold a ward record
var ErrMalformedRecord = errors.New("malformed housing ward record")

// Decode parses a raw housing ward record. Bytes past WardRecordSize are ignored.
func Decode(buf []byte) (*model.WardObservation, error) {
	if len(buf) < WardRecordSize {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrMalformedRecord, len(buf), WardRecordSize)
	}

	le := binary.LittleEndian
	w := &model.WardObservation{
		LandIdent: model.LandIdent{
			LandID:      int16(le.Uint16(buf[0:])),
			WardNumber:  int16(le.Uint16(buf[2:])),
			TerritoryID: int16(le.Uint16(buf[4:])),
			WorldID:     int16(le.Uint16(buf[6:])),
		},
	}

	for i := range w.Plots {
		// price(4) flags(1) appeals(3) owner name(32)
		entry := buf[landIdentSize+i*plotEntrySize:]
		w.Plots[i] = model.PlotObservation{
			Index: i,
			Price: le.Uint32(entry),
			Flags: model.PlotFlags(entry[plotFlagOffset]),
		}
	}

	return w, nil
}

// Encode writes a ward observation in the host record layout. Reserved bytes are zero.
func Encode(w *model.WardObservation) []byte {
	buf := make([]byte, WardRecordSize)

	le := binary.LittleEndian
	le.PutUint16(buf[0:], uint16(w.LandID))
	le.PutUint16(buf[2:], uint16(w.WardNumber))
	le.PutUint16(buf[4:], uint16(w.TerritoryID))
	le.PutUint16(buf[6:], uint16(w.WorldID))

	for i, p := range w.Plots {
		entry := buf[landIdentSize+i*plotEntrySize:]
		le.PutUint32(entry, p.Price)
		entry[plotFlagOffset] = byte(p.Flags)
	}

	return buf
}
