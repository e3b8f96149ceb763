// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package decoder

import (
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadRegistry()
	require.NoError(t, err)
	return reg
}

// buildCSSVectorPayload constructs a buffer matching scenario
// ADCS_CSS_VECTOR: skip=26, Submodule_ID=1, Queue_ID=7,
// Number_of_Instances=1, one fixed segment Op/Epoch/X/Y/Z.
func buildCSSVectorPayload(epochUnix uint32, x, y, z int16) []byte {
	buf := make([]byte, 26)
	buf = append(buf, 1, 7) // Submodule_ID, Queue_ID
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, 1)
	buf = append(buf, n...)

	buf = append(buf, 0x00) // Op
	epoch := make([]byte, 4)
	binary.LittleEndian.PutUint32(epoch, epochUnix)
	buf = append(buf, epoch...)

	for _, v := range []int16{x, y, z} {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		buf = append(buf, b...)
	}
	return buf
}

func TestDecodeADCSCSSVector(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("ADCS_CSS_VECTOR")
	require.True(t, ok)

	want := time.Date(2026, 1, 9, 8, 55, 28, 0, time.UTC)
	buf := buildCSSVectorPayload(uint32(want.Unix()), 0, 0, 16367)

	rows, warnings, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, rows, 1)

	row := rows[0]
	x, _ := row.Get("Sun_Vector_X")
	y, _ := row.Get("Sun_Vector_Y")
	z, _ := row.Get("Sun_Vector_Z")
	require.Equal(t, 0.0, x)
	require.Equal(t, 0.0, y)
	require.InDelta(t, 16.367, z, 0.0001)

	epoch, _ := row.Get("Epoch_Time_Human")
	ts, ok := epoch.(time.Time)
	require.True(t, ok)
	require.True(t, ts.Equal(want))
}

func TestDecodeQueueIDMismatchWarnsButContinues(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("ADCS_CSS_VECTOR")
	require.True(t, ok)

	buf := make([]byte, 26)
	buf = append(buf, 1, 9) // Queue_ID=9, schema expects 7
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, 1)
	buf = append(buf, n...)
	buf = append(buf, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)

	rows, warnings, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, warnings, 1)
}

func TestDecodeZeroInstancesReturnsEmpty(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("ADCS_CSS_VECTOR")
	require.True(t, ok)

	buf := make([]byte, 26)
	buf = append(buf, 1, 7, 0, 0) // Number_of_Instances=0

	rows, warnings, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.NotNil(t, rows)
	require.Len(t, rows, 0)
}

func TestDecodeTruncationStopsSilently(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("ADCS_CSS_VECTOR")
	require.True(t, ok)

	buf := make([]byte, 26)
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, 3) // claims 3 instances
	buf = append(buf, 1, 7)
	buf = append(buf, n...)
	buf = append(buf, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // exactly one full instance, no more

	rows, warnings, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, rows, 1)
}

func TestDecodeHexRejectsOddLength(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("ADCS_CSS_VECTOR")
	require.True(t, ok)

	_, _, err := DecodeHex(schema, reg.Mappings(), "abc")
	require.Error(t, err)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestDecodeHexRoundTripsThroughHexEncoding(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("ADCS_CSS_VECTOR")
	require.True(t, ok)

	buf := buildCSSVectorPayload(1767948928, 0, 0, 1000)
	rows, _, err := DecodeHex(schema, reg.Mappings(), hex.EncodeToString(buf))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDecodeGNSSEpoch64NullSentinel(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("GNSS_DATA")
	require.True(t, ok)

	buf := make([]byte, 29)
	buf = append(buf, 0, 0) // Submodule_ID, Queue_ID
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, 1)
	buf = append(buf, n...)

	// one 40-byte segment: Year..Temperature_C (32 bytes) are zeroed,
	// trailing 8 bytes are the all-ones EPOCH64 null sentinel.
	buf = append(buf, make([]byte, 32)...)
	buf = append(buf, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)

	rows, _, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	epoch, ok := rows[0].Get("Last_Fix_Epoch")
	require.True(t, ok)
	require.Nil(t, epoch)
}

func TestDecodeEPSTempInvalidSentinelAndSolarArray(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("EPS")
	require.True(t, ok)

	buf := make([]byte, 26)
	buf = append(buf, 1, 0)
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, 1)
	buf = append(buf, n...)

	buf = append(buf, make([]byte, 4)...)  // Epoch_Time_Human = 0
	buf = append(buf, make([]byte, 4)...)  // Power_Generated
	buf = append(buf, make([]byte, 4)...)  // Power_Consumed
	buf = append(buf, make([]byte, 2)...)  // Battery_Total_Voltage_V
	buf = append(buf, make([]byte, 2)...)  // Battery_Total_Current_A
	buf = append(buf, 255)                 // Battery_Temp_C: invalid sentinel
	buf = append(buf, 2)                   // Solar_Panel_Count = 2

	v1 := make([]byte, 2)
	binary.LittleEndian.PutUint16(v1, 50) // 5.0V
	v2 := make([]byte, 2)
	binary.LittleEndian.PutUint16(v2, 60) // 6.0V
	buf = append(buf, v1...)
	buf = append(buf, v2...)

	rows, _, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	temp, ok := rows[0].Get("Battery_Temp_C")
	require.True(t, ok)
	require.Nil(t, temp)

	v1got, _ := rows[0].Get("Solar_Panel_Voltage_V_1")
	v2got, _ := rows[0].Get("Solar_Panel_Voltage_V_2")
	require.Equal(t, 5.0, v1got)
	require.Equal(t, 6.0, v2got)
}

func TestDecodeOBCVariableLengthTasks(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("OBC")
	require.True(t, ok)

	buf := make([]byte, 26)
	buf = append(buf, 1, 0)
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, 1)
	buf = append(buf, n...)

	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, 1767948928)
	buf = append(buf, ts...)
	buf = append(buf, 3)          // FSM_State
	buf = append(buf, 0)          // Number_of_Resets
	buf = append(buf, 0, 0)       // IO_Errors
	buf = append(buf, 0)          // System_Errors
	buf = append(buf, 0, 0, 0, 0) // CPU_Utilisation
	buf = append(buf, 0, 0, 0, 0) // IRAM_Rem_Heap
	buf = append(buf, 0, 0, 0, 0) // ERAM_Rem_Heap
	buf = append(buf, 0, 0, 0, 0) // Uptime
	buf = append(buf, 4)          // Reset_Cause
	buf = append(buf, 2)          // Task_Count

	task1 := make([]byte, 2)
	binary.LittleEndian.PutUint16(task1, 0)
	task2 := make([]byte, 2)
	binary.LittleEndian.PutUint16(task2, 1)
	buf = append(buf, task1...)
	buf = append(buf, task2...)

	rows, warnings, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, rows, 1)

	fsm, _ := rows[0].Get("FSM_State")
	require.Equal(t, int64(3), fsm)
	fsmName, _ := rows[0].Get("FSM_State_Name")
	require.Equal(t, "obc active power normal state", fsmName)

	t1, _ := rows[0].Get("Task_Status_1")
	t2, _ := rows[0].Get("Task_Status_2")
	require.Equal(t, int64(0), t1)
	require.Equal(t, int64(1), t2)
}

func TestDecodeUnknownMappingValueFallsBackToUNKNOWN(t *testing.T) {
	reg := mustRegistry(t)
	schema, ok := reg.Lookup("OBC")
	require.True(t, ok)

	buf := make([]byte, 26)
	buf = append(buf, 1, 0)
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, 1)
	buf = append(buf, n...)
	buf = append(buf, make([]byte, 8)...) // timestamp 0
	buf = append(buf, 99)                 // FSM_State: unknown code
	// Number_of_Resets, IO_Errors, System_Errors, CPU_Utilisation,
	// IRAM_Rem_Heap, ERAM_Rem_Heap, Uptime, Reset_Cause = 21 bytes.
	buf = append(buf, make([]byte, 21)...)
	buf = append(buf, 0) // Task_Count = 0

	rows, _, err := Decode(schema, reg.Mappings(), buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	name, _ := rows[0].Get("FSM_State_Name")
	require.Equal(t, "UNKNOWN_99", name)
}
