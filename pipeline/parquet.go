package pipeline

import (
	"math"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

type cycleParquetRow struct {
	Tags       string  `parquet:"name=tags, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Cycle      int64   `parquet:"name=cycle, type=INT64"`
	PhaseIndex int64   `parquet:"name=phase_index, type=INT64"`
	Phase      float64 `parquet:"name=phase, type=DOUBLE"`
	Channel    string  `parquet:"name=channel, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value      float64 `parquet:"name=value, type=DOUBLE"`
}

type statParquetRow struct {
	GroupKey   string  `parquet:"name=group_key, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Channel    string  `parquet:"name=channel, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PhaseIndex int64   `parquet:"name=phase_index, type=INT64"`
	Phase      float64 `parquet:"name=phase, type=DOUBLE"`
	Mean       float64 `parquet:"name=mean, type=DOUBLE"`
	SD         float64 `parquet:"name=sd, type=DOUBLE"`
	NCycles    int64   `parquet:"name=n_cycles, type=INT64"`
}

// writeCyclesParquet writes one row per non-NaN cycle sample.
func writeCyclesParquet(path string, cycles []gaitcycle.NormalizedCycle) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	return writeParquet(fw, new(cycleParquetRow), func(emit func(any) error) error {
		for _, c := range cycles {
			tags := c.Tags.String()
			for _, ch := range c.Channels {
				values, ok := c.Value(ch)
				if !ok {
					continue
				}
				for i, v := range values {
					if math.IsNaN(v) {
						continue
					}
					row := cycleParquetRow{
						Tags:       tags,
						Cycle:      int64(c.Number),
						PhaseIndex: int64(i),
						Phase:      c.Phase[i],
						Channel:    ch,
						Value:      v,
					}
					if err := emit(row); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// writeStatsParquet writes one row per aggregate cell.
func writeStatsParquet(path string, stats []gaitcycle.AggregateStat) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	return writeParquet(fw, new(statParquetRow), func(emit func(any) error) error {
		for _, s := range stats {
			row := statParquetRow{
				GroupKey:   s.Group.String(),
				Channel:    s.Channel,
				PhaseIndex: int64(s.PhaseIndex),
				Phase:      s.Phase,
				Mean:       s.Mean,
				SD:         s.SD,
				NCycles:    int64(s.Count),
			}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeParquet(fw source.ParquetFile, schema any, rows func(emit func(any) error) error) error {
	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	if err := rows(pw.Write); err != nil {
		_ = pw.WriteStop()
		_ = fw.Close()
		return err
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
