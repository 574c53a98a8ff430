// Command strgt genotypes STRs and small structural variants from a
// paired-end short-read BAM archive against a variant catalog, emitting
// VCF and an optional debug alignment BAM. Flags and startup sequence
// are grounded on cmd/bio-fusion/main.go's flag.XVar + grail.Init() +
// vcontext.Background() pattern.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"runtime"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/strgt/internal/archive"
	"github.com/grailbio/strgt/internal/bamwriter"
	"github.com/grailbio/strgt/internal/catalog"
	"github.com/grailbio/strgt/internal/concurrency"
	"github.com/grailbio/strgt/internal/errs"
	"github.com/grailbio/strgt/internal/locus"
	"github.com/grailbio/strgt/internal/locusstats"
	"github.com/grailbio/strgt/internal/reads"
	"github.com/grailbio/strgt/internal/reference"
	"github.com/grailbio/strgt/internal/region"
	"github.com/grailbio/strgt/internal/vcfio"
)

type strgtFlags struct {
	archivePath        string
	archiveIndexPath   string
	referencePath      string
	referenceIndexPath string
	catalogPath        string
	sex                string
	threads            int
	outputPrefix       string
	debugBAMPath       string
	logLevel           string
}

func main() {
	flags := strgtFlags{}
	flag.StringVar(&flags.archivePath, "archive", "", "Path to the aligned-read BAM archive")
	flag.StringVar(&flags.archiveIndexPath, "archive-index", "", "Path to the archive's .bai index (default: <archive>.bai)")
	flag.StringVar(&flags.referencePath, "reference", "", "Path to the reference FASTA")
	flag.StringVar(&flags.referenceIndexPath, "reference-index", "", "Path to the reference's .fai index (default: <reference>.fai)")
	flag.StringVar(&flags.catalogPath, "catalog", "", "Path to the variant catalog JSON")
	flag.StringVar(&flags.sex, "sex", "female", "Sample sex: male or female")
	flag.IntVar(&flags.threads, "threads", runtime.NumCPU(), "Number of locus worker goroutines")
	flag.StringVar(&flags.outputPrefix, "output-prefix", "strgt", "Prefix for output files (writes <prefix>.vcf)")
	flag.StringVar(&flags.debugBAMPath, "debug-bam", "", "Optional path to write a debug alignment BAM")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Logging verbosity: debug, info, or error")

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	if flags.archivePath == "" || flags.referencePath == "" || flags.catalogPath == "" {
		log.Fatal("-archive, -reference, and -catalog are required")
	}
	sex, err := parseSex(flags.sex)
	if err != nil {
		log.Panic(err)
	}
	if flags.logLevel == "debug" {
		log.Printf("strgt: archive=%s reference=%s catalog=%s sex=%s threads=%d",
			flags.archivePath, flags.referencePath, flags.catalogPath, flags.sex, flags.threads)
	}

	if err := run(ctx, flags, sex); err != nil {
		if errs.KindOf(err) == errs.Malformed || errs.KindOf(err) == errs.Invariant {
			log.Error.Printf("%v", err)
			os.Exit(1)
		}
		log.Panic(err)
	}
	log.Printf("strgt: done")
}

func parseSex(s string) (locusstats.Sex, error) {
	switch s {
	case "male":
		return locusstats.Male, nil
	case "female":
		return locusstats.Female, nil
	default:
		return 0, errs.E(errs.Malformed, fmt.Sprintf("unknown -sex value %q, want male or female", s))
	}
}

func run(ctx context.Context, flags strgtFlags, sex locusstats.Sex) error {
	arc, contigs, header, err := openArchive(flags)
	if err != nil {
		return err
	}
	defer arc.Close()

	ref, err := openReference(flags)
	if err != nil {
		return err
	}

	catalogBytes, err := ioutil.ReadFile(flags.catalogPath)
	if err != nil {
		return errs.E(errs.IO, "reading catalog", err)
	}
	specs, err := catalog.Decode(catalogBytes, contigs)
	if err != nil {
		return err
	}
	log.Printf("strgt: loaded %d loci from %s", len(specs), flags.catalogPath)

	var debugWriter *bamwriter.DebugWriter
	if flags.debugBAMPath != "" {
		debugOut, err := os.Create(flags.debugBAMPath)
		if err != nil {
			return errs.E(errs.IO, "creating debug bam", err)
		}
		defer debugOut.Close()
		debugWriter, err = bamwriter.NewDebugWriter(debugOut, header, 4*flags.threads)
		if err != nil {
			return err
		}
	}

	findings := make([]*locus.LocusFindings, len(specs))
	harness := concurrency.NewHarness(len(specs))
	runErr := harness.Run(flags.threads, func(i int) error {
		return analyzeLocus(specs[i], sex, arc, header, debugWriter, findings, i)
	})

	if debugWriter != nil {
		if closeErr := debugWriter.Close(); closeErr != nil && runErr == nil {
			runErr = closeErr
		}
	}
	if runErr != nil {
		return runErr
	}

	records := make([]vcfio.Record, len(specs))
	for i, spec := range specs {
		records[i] = vcfio.Record{Spec: spec, Findings: findings[i]}
	}
	return writeVCF(ctx, flags.outputPrefix+".vcf", records, contigs, ref)
}

// analyzeLocus runs one locus's full acquisition+analysis pipeline and
// stores its findings at findings[i]; the harness guarantees no two
// goroutines ever call this for the same i (§5).
func analyzeLocus(spec *locus.LocusSpecification, sex locusstats.Sex, arc archive.Archive,
	header *sam.Header, debugWriter *bamwriter.DebugWriter, findings []*locus.LocusFindings, i int) error {

	collector := reads.NewCollector()
	for _, r := range append(append([]region.GenomicRegion{}, spec.TargetRegions...), spec.OfftargetRegions...) {
		if err := scanRegion(arc, r, collector.AddPrimary); err != nil {
			return err
		}
	}
	for _, req := range collector.PendingRecovery() {
		r, err := region.New(req.Contig, req.Pos, req.Pos+1)
		if err != nil {
			continue
		}
		if err := scanRegion(arc, r, collector.AddRecovered); err != nil {
			return err
		}
	}

	analyzer := locus.NewAnalyzer(spec, sex)
	f, err := analyzer.Run(collector.Pairs())
	if err != nil {
		return err
	}
	findings[i] = f

	if debugWriter != nil {
		if len(spec.TargetRegions) > 0 {
			refs := header.Refs()
			contigID := spec.TargetRegions[0].ContigID
			if int(contigID) < len(refs) {
				if err := debugWriter.Push(spec.ID, refs[contigID], analyzer.DebugAlignments()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// scanRegion queries arc for r and hands every primary alignment to add.
func scanRegion(arc archive.Archive, r region.GenomicRegion, add func(*reads.Read, reads.LinearAlignmentStats)) error {
	it, err := arc.Query(r)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Scan() {
		read := it.Read()
		add(&read, it.Stats())
	}
	return it.Err()
}

func openArchive(flags strgtFlags) (archive.Archive, *region.ContigInfo, *sam.Header, error) {
	bamFile, err := os.Open(flags.archivePath)
	if err != nil {
		return nil, nil, nil, errs.E(errs.IO, "opening archive", err)
	}
	indexPath := flags.archiveIndexPath
	if indexPath == "" {
		indexPath = flags.archivePath + ".bai"
	}
	indexFile, err := os.Open(indexPath)
	if err != nil {
		return nil, nil, nil, errs.E(errs.IO, "opening archive index", err)
	}
	defer indexFile.Close()

	arc, err := archive.Open(bamFile, indexFile)
	if err != nil {
		return nil, nil, nil, err
	}

	headerFile, err := os.Open(flags.archivePath)
	if err != nil {
		return nil, nil, nil, errs.E(errs.IO, "opening archive for header", err)
	}
	defer headerFile.Close()
	reader, err := bam.NewReader(headerFile, 1)
	if err != nil {
		return nil, nil, nil, errs.E(errs.IO, "reading archive header", err)
	}
	defer reader.Close()

	return arc, arc.Contigs(), reader.Header(), nil
}

func openReference(flags strgtFlags) (reference.Reference, error) {
	fastaFile, err := os.Open(flags.referencePath)
	if err != nil {
		return nil, errs.E(errs.IO, "opening reference", err)
	}
	indexPath := flags.referenceIndexPath
	if indexPath == "" {
		indexPath = flags.referencePath + ".fai"
	}
	indexFile, err := os.Open(indexPath)
	if err != nil {
		return nil, errs.E(errs.IO, "opening reference index", err)
	}
	defer indexFile.Close()
	return reference.NewIndexed(fastaFile, indexFile)
}

func writeVCF(ctx context.Context, path string, records []vcfio.Record, contigs *region.ContigInfo, ref reference.Reference) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errs.E(errs.IO, "creating vcf output", err)
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil {
			log.Error.Printf("closing vcf output: %v", cerr)
		}
	}()
	if err := vcfio.Write(out.Writer(ctx), records, contigs, ref); err != nil {
		return err
	}
	log.Printf("strgt: wrote %d loci to %s", len(records), path)
	return nil
}
