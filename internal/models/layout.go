package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed record sizes. Field order and widths are part of the storage format
// and must not change without a new discriminator.
const (
	RoundSize       = 16 + 1 + 8 + 1 + 13 + 4 + 4 + 8 + 8 + 8 + 8
	HistorySize     = 4 + 4 + MaxHistory*RoundSize
	PlayerStateSize = 8 + 7*AddressLen + RoundSize + 8 + HistorySize
)

var playerDiscriminator = [8]byte{'P', 'L', 'A', 'Y', 'E', 'R', 'V', '1'}

type layoutWriter struct {
	buf []byte
	off int
}

func (w *layoutWriter) u8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *layoutWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *layoutWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *layoutWriter) i64(v int64) {
	w.u64(uint64(v))
}

func (w *layoutWriter) raw(b []byte) {
	copy(w.buf[w.off:], b)
	w.off += len(b)
}

func (w *layoutWriter) address(s string) error {
	if len(s) > AddressLen {
		return fmt.Errorf("address %q exceeds %d bytes", s, AddressLen)
	}
	copy(w.buf[w.off:w.off+AddressLen], s)
	w.off += AddressLen
	return nil
}

func (w *layoutWriter) round(r *Round) {
	id := r.RoundID.Bytes16()
	w.raw(id[:])
	w.u8(uint8(r.Status))
	w.u64(r.BetAmount)
	w.u8(uint8(r.GameType))
	w.u8(r.GameConfig.NumRandomValues)
	w.u32(r.GameConfig.Min)
	w.u32(r.GameConfig.Max)
	w.u32(r.GameConfig.PayoutMultiplier)
	w.u32(r.Guess)
	w.u32(r.Result)
	w.u64(r.RequestSlot)
	w.i64(r.RequestTimestamp)
	w.u64(r.SettleSlot)
	w.i64(r.SettleTimestamp)
}

type layoutReader struct {
	buf []byte
	off int
}

func (r *layoutReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *layoutReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *layoutReader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *layoutReader) i64() int64 {
	return int64(r.u64())
}

func (r *layoutReader) address() string {
	field := r.buf[r.off : r.off+AddressLen]
	r.off += AddressLen
	return string(bytes.TrimRight(field, "\x00"))
}

func (r *layoutReader) round() Round {
	var id [16]byte
	copy(id[:], r.buf[r.off:r.off+16])
	r.off += 16

	var out Round
	out.RoundID = RoundIDFromBytes16(id)
	out.Status = RoundStatus(r.u8())
	out.BetAmount = r.u64()
	out.GameType = GameType(r.u8())
	out.GameConfig.NumRandomValues = r.u8()
	out.GameConfig.Min = r.u32()
	out.GameConfig.Max = r.u32()
	out.GameConfig.PayoutMultiplier = r.u32()
	out.Guess = r.u32()
	out.Result = r.u32()
	out.RequestSlot = r.u64()
	out.RequestTimestamp = r.i64()
	out.SettleSlot = r.u64()
	out.SettleTimestamp = r.i64()
	return out
}

func (p *PlayerState) MarshalBinary() ([]byte, error) {
	w := &layoutWriter{buf: make([]byte, PlayerStateSize)}
	w.raw(playerDiscriminator[:])
	for _, addr := range []string{p.Address, p.Authority, p.House, p.Escrow, p.RewardAddress, p.FeeWallet, p.RandomnessRequest} {
		if err := w.address(addr); err != nil {
			return nil, err
		}
	}
	w.round(&p.CurrentRound)
	w.u64(p.LastAirdropSlot)
	w.u32(p.History.Idx)
	w.u32(p.History.Max)
	for i := range p.History.Rounds {
		w.round(&p.History.Rounds[i])
	}
	return w.buf, nil
}

func (p *PlayerState) UnmarshalBinary(data []byte) error {
	if len(data) != PlayerStateSize {
		return fmt.Errorf("player record is %d bytes, expected %d", len(data), PlayerStateSize)
	}
	if !bytes.Equal(data[:8], playerDiscriminator[:]) {
		return fmt.Errorf("player record has unknown discriminator %x", data[:8])
	}

	r := &layoutReader{buf: data, off: 8}
	p.Address = r.address()
	p.Authority = r.address()
	p.House = r.address()
	p.Escrow = r.address()
	p.RewardAddress = r.address()
	p.FeeWallet = r.address()
	p.RandomnessRequest = r.address()
	p.CurrentRound = r.round()
	p.LastAirdropSlot = r.u64()
	p.History.Idx = r.u32()
	p.History.Max = r.u32()
	if p.History.Idx >= MaxHistory {
		return fmt.Errorf("history cursor %d out of range", p.History.Idx)
	}
	for i := range p.History.Rounds {
		p.History.Rounds[i] = r.round()
	}
	return nil
}
