package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/freeeve/pgnbook/internal/book"
)

// Body encoding, all integers big-endian:
//
//	PositionCount (4)
//	per position, sorted by EPD:
//	  EPD (2-byte length + bytes)
//	  MoveCount (2)
//	  per move, sorted by UCI:
//	    UCI (1-byte length + bytes)
//	    SAN (1-byte length + bytes)
//	    Win, Draw, Loss (8 each)

const countsSize = 8 + 8 + 8

var errShortBody = errors.New("body truncated")

func encodeBody(b *book.Book) ([]byte, error) {
	epds := make([]string, 0, len(b.Positions))
	for epd := range b.Positions {
		epds = append(epds, epd)
	}
	sort.Strings(epds)

	buf := binary.BigEndian.AppendUint32(nil, uint32(len(epds)))
	for _, epd := range epds {
		pos := b.Positions[epd]
		if len(epd) > 0xFFFF {
			return nil, fmt.Errorf("epd too long: %d bytes", len(epd))
		}
		if len(pos.Moves) > 0xFFFF {
			return nil, fmt.Errorf("too many moves at %q: %d", epd, len(pos.Moves))
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(epd)))
		buf = append(buf, epd...)

		ucis := make([]string, 0, len(pos.Moves))
		for uci := range pos.Moves {
			ucis = append(ucis, uci)
		}
		sort.Strings(ucis)

		buf = binary.BigEndian.AppendUint16(buf, uint16(len(ucis)))
		for _, uci := range ucis {
			m := pos.Moves[uci]
			if len(uci) > 0xFF || len(m.SAN) > 0xFF {
				return nil, fmt.Errorf("move notation too long at %q: %q", epd, uci)
			}
			buf = append(buf, byte(len(uci)))
			buf = append(buf, uci...)
			buf = append(buf, byte(len(m.SAN)))
			buf = append(buf, m.SAN...)
			buf = binary.BigEndian.AppendUint64(buf, m.Win)
			buf = binary.BigEndian.AppendUint64(buf, m.Draw)
			buf = binary.BigEndian.AppendUint64(buf, m.Loss)
		}
	}
	return buf, nil
}

// bodyReader walks an encoded body.
type bodyReader struct {
	data []byte
	off  int
}

func (r *bodyReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d of %d", errShortBody, n, r.off, len(r.data))
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *bodyReader) uint16() (int, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(b)), nil
}

func (r *bodyReader) str8() (string, error) {
	n, err := r.take(1)
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n[0]))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeBody(data []byte, b *book.Book) error {
	r := &bodyReader{data: data}
	head, err := r.take(4)
	if err != nil {
		return err
	}
	count := binary.BigEndian.Uint32(head)

	for i := uint32(0); i < count; i++ {
		n, err := r.uint16()
		if err != nil {
			return err
		}
		epd, err := r.take(n)
		if err != nil {
			return err
		}
		pos := book.NewPosition(string(epd))

		moves, err := r.uint16()
		if err != nil {
			return err
		}
		for j := 0; j < moves; j++ {
			uci, err := r.str8()
			if err != nil {
				return err
			}
			san, err := r.str8()
			if err != nil {
				return err
			}
			c, err := r.take(countsSize)
			if err != nil {
				return err
			}
			pos.Moves[uci] = &book.Move{
				UCI:  uci,
				SAN:  san,
				Win:  binary.BigEndian.Uint64(c[0:8]),
				Draw: binary.BigEndian.Uint64(c[8:16]),
				Loss: binary.BigEndian.Uint64(c[16:24]),
			}
		}
		b.Positions[pos.EPD] = pos
	}
	if r.off != len(data) {
		return fmt.Errorf("%d trailing bytes after %d positions", len(data)-r.off, count)
	}
	return nil
}
