package mqtt

import "testing"

func TestTopics_DeviceCommand(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{category: "led", want: "solhome/device/led"},
		{category: "light", want: "solhome/device/light"},
		{category: "fan", want: "solhome/device/fan"},
		{category: "security", want: "solhome/device/security"},
	}

	topics := Topics{}
	for _, tt := range tests {
		if got := topics.DeviceCommand(tt.category); got != tt.want {
			t.Errorf("DeviceCommand(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestTopics_SystemStatus(t *testing.T) {
	if got := (Topics{}).SystemStatus(); got != "solhome/system/status" {
		t.Errorf("SystemStatus() = %q, want %q", got, "solhome/system/status")
	}
}
