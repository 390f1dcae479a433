package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todo/internal/service"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Buy milk", "Buy milk"},
		{"", "(untitled)"},
		{"   ", "(untitled)"},
		{"two\nlines", "two lines"},
		{"crlf\r\nline", "crlf  line"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeTitle(tt.in), "normalizeTitle(%q)", tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "Jan 5, 2024", FormatDate(time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dec 31, 2023", FormatDate(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestFormatHeader(t *testing.T) {
	var buf bytes.Buffer
	FormatHeader(&buf, nil)
	assert.Equal(t, "TodoApp\n------------\n", buf.String())

	buf.Reset()
	FormatHeader(&buf, &service.User{Name: "Ann"})
	assert.Equal(t, "TodoApp  Ann\n------------\n", buf.String())
}

func TestFormatTask(t *testing.T) {
	due, err := service.ParseDate("2024-01-05")
	assert.NoError(t, err)

	tests := []struct {
		name string
		task service.Task
		want string
	}{
		{
			name: "minimal",
			task: service.Task{Title: "Buy milk"},
			want: "Buy milk [Pending]\n",
		},
		{
			name: "full",
			task: service.Task{
				Title:       "Pay rent",
				Description: "landlord\r\nby transfer\n",
				DueDate:     &due,
				IsCompleted: true,
				CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			want: "Pay rent [Completed]\n" +
				"    landlord\n" +
				"    by transfer\n" +
				"    Due: Jan 5, 2024\n" +
				"    Created: Jan 1, 2024\n",
		},
		{
			name: "zero due date",
			task: service.Task{Title: "x", DueDate: &service.Date{}},
			want: "x [Pending]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FormatTask(&buf, tt.task)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFormatUser(t *testing.T) {
	var buf bytes.Buffer
	FormatUser(&buf, service.User{ID: "1", Name: "Ann", Email: "a@b.com", Token: "secret"})
	assert.Equal(t, "id:    1\nname:  Ann\nemail: a@b.com\n", buf.String())
}
