package main

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

var (
	encodeCmd = &cobra.Command{
		Use:   "encode",
		Short: "Build a single-reading frame",
		Long:  "encode builds the 30-byte frame for one reading and prints it as hex.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := encodeReading()
			if err != nil {
				return err
			}
			codec, err := humiture.New(humiture.Options{Variant: variant})
			if err != nil {
				return err
			}
			logrus.Debug(r)
			fmt.Fprintln(cmd.OutOrStdout(), strings.ToUpper(hex.EncodeToString(codec.Encode(r))))
			return nil
		},
	}

	encSerial   string
	encDeviceID string
	encGroup    uint8
	encType     uint8
	encTemp     float64
	encHum      float64
	encRandom   bool
	encWave     bool
	encRadius   float64
	encAngle    float64
)

func init() {
	encodeCmd.Flags().StringVar(&encSerial, "sn", "00000001", "serial number (8 hex digits)")
	encodeCmd.Flags().StringVar(&encDeviceID, "id", "0000111122223333", "device id (16 hex digits)")
	encodeCmd.Flags().Uint8Var(&encGroup, "group", 0, "group id")
	encodeCmd.Flags().Uint8Var(&encType, "type", 0, "type id")
	encodeCmd.Flags().Float64Var(&encTemp, "t", 0, "temperature in °C")
	encodeCmd.Flags().Float64Var(&encHum, "h", 0, "relative humidity in %")
	encodeCmd.Flags().BoolVar(&encRandom, "random", false, "generate a random test-group reading")
	encodeCmd.Flags().BoolVar(&encWave, "wave", false, "generate a sine/cosine test-group reading")
	encodeCmd.Flags().Float64Var(&encRadius, "radius", 30, "wave amplitude")
	encodeCmd.Flags().Float64Var(&encAngle, "angle", 0, "wave angle in degrees")
	encodeCmd.MarkFlagsMutuallyExclusive("random", "wave")
}

func encodeReading() (humiture.Reading, error) {
	ts, err := referenceTime()
	if err != nil {
		return humiture.Reading{}, err
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	if encRandom {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		return humiture.RandomReading(rng, ts), nil
	}
	if encWave {
		return humiture.WaveReading(encRadius, encAngle, ts), nil
	}

	sn, err := strconv.ParseUint(strings.TrimPrefix(encSerial, "0x"), 16, 32)
	if err != nil {
		return humiture.Reading{}, fmt.Errorf("--sn: %w", err)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(encDeviceID, "0x"), 16, 64)
	if err != nil {
		return humiture.Reading{}, fmt.Errorf("--id: %w", err)
	}
	return humiture.Reading{
		Timestamp:    ts,
		SerialNumber: uint32(sn),
		DeviceID:     id,
		GroupID:      encGroup,
		TypeID:       encType,
		Temperature:  encTemp,
		Humidity:     encHum,
	}, nil
}
