package speech

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

const (
	wavSampleRate = 24000
	wavChannels   = 1
	wavBitDepth   = 16
)

// writeSilentWAV writes a PCM WAV file of zero samples for the given
// duration. The mock backend uses it so downstream assembly consumes the
// same kind of artifact a real synthesis run produces.
func writeSilentWAV(path string, d time.Duration) error {
	samples := int(float64(wavSampleRate) * d.Seconds())
	bytesPerSample := wavChannels * wavBitDepth / 8
	dataSize := samples * bytesPerSample

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	header := make([]byte, 0, 44)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+dataSize))
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, wavChannels)
	header = binary.LittleEndian.AppendUint32(header, wavSampleRate)
	header = binary.LittleEndian.AppendUint32(header, uint32(wavSampleRate*bytesPerSample))
	header = binary.LittleEndian.AppendUint16(header, uint16(bytesPerSample))
	header = binary.LittleEndian.AppendUint16(header, wavBitDepth)
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataSize))

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	// Write silence in chunks so long clips do not hold the whole
	// payload in memory.
	zeros := make([]byte, 64*1024)
	for remaining := dataSize; remaining > 0; {
		n := len(zeros)
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(zeros[:n]); err != nil {
			return fmt.Errorf("write wav data: %w", err)
		}
		remaining -= n
	}
	return f.Close()
}
