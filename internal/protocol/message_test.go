package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("not json at all")
	assert.Error(t, err)

	_, err = Parse(`{"type":`)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name   string
		record string
		want   Kind
	}{
		{
			name:   "handshake",
			record: `{"type":"hello_arduino","hardwareId":"HW1"}`,
			want:   KindHello,
		},
		{
			name:   "handshake without identifier",
			record: `{"type":"hello_arduino"}`,
			want:   KindUnknown,
		},
		{
			name:   "acknowledgement",
			record: `{"type":"ack_set_interval","hardwareId":"HW1","value_ms":60000}`,
			want:   KindAck,
		},
		{
			name:   "acknowledgement without identifier",
			record: `{"type":"ack_set_interval"}`,
			want:   KindUnknown,
		},
		{
			name:   "sensor payload",
			record: `{"hardwareId":"HW1","temperature":21.5,"ph":6.8}`,
			want:   KindSensor,
		},
		{
			name:   "identifier only",
			record: `{"hardwareId":"HW1"}`,
			want:   KindSensor,
		},
		{
			name:   "unrecognized type",
			record: `{"type":"goodbye","hardwareId":"HW1"}`,
			want:   KindUnknown,
		},
		{
			name:   "no type and no identifier",
			record: `{"temperature":21.5}`,
			want:   KindUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Parse(tc.record)
			require.NoError(t, err)
			assert.Equal(t, tc.want, msg.Classify())
		})
	}
}

func TestParse_MetricFieldsOptional(t *testing.T) {
	msg, err := Parse(`{"hardwareId":"HW1","ph":6.8}`)
	require.NoError(t, err)

	require.NotNil(t, msg.PH)
	assert.Equal(t, 6.8, *msg.PH)
	assert.Nil(t, msg.Temperature)
	assert.Nil(t, msg.AirHumidity)
	assert.Nil(t, msg.SoilHumidity)
	assert.Nil(t, msg.LightLevel)
	assert.Nil(t, msg.WaterLevel)
}

func TestAckCommand(t *testing.T) {
	msg, err := Parse(`{"type":"ack_set_temp_unit","hardwareId":"HW1","unit":"CELSIUS"}`)
	require.NoError(t, err)
	assert.Equal(t, "set_temp_unit", msg.AckCommand())
}
