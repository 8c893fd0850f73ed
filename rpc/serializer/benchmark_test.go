package serializer

import (
	"testing"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"Granted": {
			MsgType: common.MsgTAccessGranted,
		},
		"ShortNames": {
			MsgType:   common.MsgTAccessRequest,
			Resource:  "r",
			Requester: "a",
			Kind:      1,
		},
		"MediumNames": {
			MsgType:   common.MsgTAccessRequest,
			Resource:  "medium-length-resource-name",
			Requester: "c2a7f1d4-4a9e-4bde-9d3a-5f0e8e0b9a11",
			Kind:      3,
		},
		"LongResourceName": {
			MsgType:   common.MsgTAccessRelease,
			Resource:  "this-is-a-very-long-resource-name-that-could-be-a-path-like-name-of-some-shared-device",
			Requester: "alice",
			Kind:      2,
		},
		"PeerForward": {
			MsgType:   common.MsgTAccessRequest,
			Resource:  "printer",
			Requester: "alice",
			Origin:    "node-1",
			RequestID: 123456789,
			Kind:      3,
		},
		"WhoHas": {
			MsgType:   common.MsgTWhoHasResponse,
			Resource:  "printer",
			Requester: "alice",
			Origin:    "node-2",
			Ok:        true,
		},
		"StatusSnapshot": {
			MsgType: common.MsgTStatus,
			Meta:    make([]byte, 1024*16), // 16KB of data
		},
		"CompleteMessage": {
			MsgType:   common.MsgTMgmtDenied,
			Resource:  "complete-test-resource",
			Requester: "complete-test-requester",
			Origin:    "node-3",
			RequestID: 20000,
			Kind:      2,
			Reason:    1,
			Ok:        true,
			Err:       "This is a test error message",
			Meta:      []byte("test-meta-data-for-benchmarking"),
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Err:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
