// Command gendeck writes a synthetic ADECK/BDECK pair for one storm, for
// fixtures and local runs. The best track moves steadily north-west while
// intensifying; each forecast technique follows it with a seeded error that
// grows with lead time. Lines can also be published to a Kafka topic with
// the deck header set.
//
// Usage:
//
//	go run ./cmd/gendeck -out-dir data/decks -storm AL092022 -start 2022092300
//	go run ./cmd/gendeck -kafka-brokers localhost:9092 -topic atcf-deck-lines
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	kafkago "github.com/segmentio/kafka-go"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/storm-track-verify/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

type options struct {
	basin      string
	cyclone    string
	year       int
	start      time.Time
	hours      int
	techniques []string
	seed       uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory to write a<storm>.dat and b<storm>.dat")
	storm := flag.String("storm", "AL092022", "storm id, e.g. AL092022")
	start := flag.String("start", "2022092300", "first best track time, YYYYMMDDHH")
	hours := flag.Int("hours", 120, "best track length in hours")
	techs := flag.String("techniques", "OFCL,GFSI,HWFI", "comma-separated forecast techniques")
	seed := flag.Uint64("seed", 1, "random seed")
	gz := flag.Bool("gzip", false, "gzip the output files")
	brokers := flag.String("kafka-brokers", "", "publish lines to Kafka instead of files")
	topic := flag.String("topic", "atcf-deck-lines", "Kafka topic for -kafka-brokers")
	flag.Parse()

	opts, err := parseOptions(*storm, *start, *hours, *techs, *seed)
	if err != nil {
		flag.Usage()
		return err
	}

	adeck, bdeck := generate(opts)
	log.Printf("generated %d adeck and %d bdeck lines", len(adeck), len(bdeck))

	switch {
	case *brokers != "":
		return publish(sharedcfg.ParseBrokers(*brokers), *topic, adeck, bdeck)
	case *outDir != "":
		name := strings.ToLower(opts.basin) + opts.cyclone + fmt.Sprint(opts.year) + ".dat"
		if err := writeDeck(filepath.Join(*outDir, "a"+name), adeck, *gz); err != nil {
			return err
		}
		return writeDeck(filepath.Join(*outDir, "b"+name), bdeck, *gz)
	default:
		flag.Usage()
		return fmt.Errorf("one of -out-dir or -kafka-brokers is required")
	}
}

func parseOptions(storm, start string, hours int, techs string, seed uint64) (options, error) {
	if len(storm) != 8 {
		return options{}, fmt.Errorf("storm id %q: want BBCCYYYY", storm)
	}
	var year int
	if _, err := fmt.Sscanf(storm[4:], "%d", &year); err != nil {
		return options{}, fmt.Errorf("storm id %q: bad year", storm)
	}
	t, err := atcf.ParseTime(start)
	if err != nil {
		return options{}, fmt.Errorf("start: %w", err)
	}
	if hours < 6 {
		return options{}, fmt.Errorf("hours must be at least 6")
	}
	var list []string
	for _, s := range strings.Split(techs, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, strings.ToUpper(s))
		}
	}
	return options{
		basin:      strings.ToUpper(storm[:2]),
		cyclone:    storm[2:4],
		year:       year,
		start:      t,
		hours:      hours,
		techniques: list,
		seed:       seed,
	}, nil
}

type fix struct {
	lat, lon float64
	vmax     int
	mslp     int
}

// bestFix is the synthetic truth h hours after the start.
func bestFix(h float64) fix {
	vmax := int(math.Min(35+h*0.9, 140))
	return fix{
		lat:  15 + h*0.12,
		lon:  -60 - h*0.18,
		vmax: vmax,
		mslp: 1010 - int(float64(vmax-25)*0.8),
	}
}

// generate returns ADECK and BDECK lines: one best track fix every 6 hours,
// forecasts every 12 hours out to 72 hours for each technique and init,
// and one rapid intensification probability per init from SHIP.
func generate(o options) (adeck, bdeck []string) {
	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))

	for h := 0; h <= o.hours; h += 6 {
		bdeck = append(bdeck, trackLine(o, o.start.Add(time.Duration(h)*time.Hour), "BEST", 0, bestFix(float64(h))))
	}

	for init := 0; init <= o.hours; init += 12 {
		initTime := o.start.Add(time.Duration(init) * time.Hour)
		for _, tech := range o.techniques {
			// Each technique drifts with its own bias.
			dLat, dLon, dV := rng.NormFloat64()*0.02, rng.NormFloat64()*0.02, rng.NormFloat64()*0.2
			for tau := 0; tau <= 72; tau += 12 {
				f := bestFix(float64(init + tau))
				f.lat += dLat * float64(tau)
				f.lon += dLon * float64(tau)
				f.vmax = max(f.vmax+int(dV*float64(tau)), 20)
				f.mslp = 1010 - int(float64(f.vmax-25)*0.8)
				adeck = append(adeck, trackLine(o, initTime, tech, tau, f))
			}
		}
		f := bestFix(float64(init))
		prob := int(math.Min(90, math.Max(5, 40+rng.NormFloat64()*20)))
		adeck = append(adeck, fmt.Sprintf("%s, %s, %s, RI, SHIP, %3d, %5s, %6s, %3d, %s, %3d, XXX, %d, %d",
			o.basin, o.cyclone, atcf.FormatTime(initTime), 0,
			atcf.FormatLat(f.lat), atcf.FormatLon(f.lon), prob, "30", f.vmax+30, 0, 24))
	}
	return adeck, bdeck
}

func trackLine(o options, init time.Time, tech string, tau int, f fix) string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %3d, %5s, %6s, %3d, %4d, %s",
		o.basin, o.cyclone, atcf.FormatTime(init), techNum(tech), tech, tau,
		atcf.FormatLat(f.lat), atcf.FormatLon(f.lon), f.vmax, f.mslp,
		atcf.WindSpeedToLevel(f.vmax))
}

func techNum(tech string) string {
	if tech == "BEST" {
		return "  "
	}
	return "03"
}

func writeDeck(path string, lines []string, gz bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data := []byte(strings.Join(lines, "\n") + "\n")
	if gz {
		path += ".gz"
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		zw := gzip.NewWriter(f)
		if _, err := zw.Write(data); err != nil {
			_ = f.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	} else if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}

func publish(brokers []string, topic string, adeck, bdeck []string) error {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	defer w.Close()

	msgs := deckMessages(domain.DeckA, adeck)
	msgs = append(msgs, deckMessages(domain.DeckB, bdeck)...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish deck lines: %w", err)
	}
	log.Printf("published %d lines to %s", len(msgs), topic)
	return nil
}

func deckMessages(deck domain.Deck, lines []string) []kafkago.Message {
	msgs := make([]kafkago.Message, len(lines))
	for i, l := range lines {
		msgs[i] = kafkago.Message{
			Value:   []byte(l),
			Headers: []kafkago.Header{{Key: kafka.DeckHeader, Value: []byte(deck)}},
		}
	}
	return msgs
}
