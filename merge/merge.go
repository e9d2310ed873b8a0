// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package merge combines the log files written by the processes of a job
// into a single log file.
//
// A merge runs in two passes. The first pass reads the job description and
// record name table of every input, reconciles them and writes them to the
// output. The second pass runs once per registered module: it optionally
// aggregates the records that every process holds for the same resource and
// then copies every remaining record of every input, in input order. Either a
// complete output is produced or none: on any failure the output file is
// removed.
package merge // import "github.com/cockroachdb/iolog/merge"

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/logfile"
	"github.com/cockroachdb/iolog/modules"
)

// Merge merges the named inputs into output. The first input supplies the
// job description, exe and mount table; the job's time range is widened to
// cover every input.
//
// An input whose job metadata carries the shutdown sentinel fails the merge
// with an error marked ErrCorruptInput. Two inputs naming the same record
// identifier differently fail it with an error marked ErrNameConflict. In
// both cases no output file is created.
//
// Each module is written at the format version of the first input holding
// it. Records of older versions are upgraded; a record of a newer version
// fails the merge with an error marked ErrModuleWrite.
func Merge(output string, inputs []string, opts *Options) (*Summary, error) {
	opts = opts.EnsureDefaults()
	s := &session{
		opts:            opts,
		output:          output,
		inputs:          inputs,
		sharedReduction: opts.SharedReduction,
	}
	return s.run()
}

// session is a single merge or conversion. It owns the output file until
// the session completes and removes it on failure.
type session struct {
	opts   *Options
	output string
	inputs []string
	// sharedReduction enables aggregation of shared records.
	sharedReduction bool
	// upgrade writes every module at its current version instead of the
	// version of the first input holding it.
	upgrade bool

	job      logfile.Job
	exe      string
	mounts   []logfile.Mount
	names    logfile.NameTable
	segments [][]logfile.SegmentInfo

	w       *logfile.Writer
	summary Summary
}

func (s *session) run() (_ *Summary, err error) {
	if len(s.inputs) == 0 {
		return nil, errors.New("merge: no inputs")
	}
	for _, in := range s.inputs {
		if in == s.output {
			return nil, errors.Newf("merge: output %s is also an input", s.output)
		}
	}
	if err := s.collectMetadata(); err != nil {
		return nil, err
	}

	defer func() {
		if err == nil {
			return
		}
		if s.w != nil {
			s.w.Abort()
		}
		if rerr := s.opts.FS.Remove(s.output); rerr != nil && !oserror.IsNotExist(rerr) {
			s.opts.Logger.Errorf("merge: removing %s: %v", s.output, rerr)
		}
	}()

	if err := s.openOutput(); err != nil {
		return nil, err
	}
	for _, mod := range s.opts.Modules.Modules() {
		if err := s.mergeModule(mod); err != nil {
			return nil, err
		}
	}
	w := s.w
	s.w = nil
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "merge: closing %s", s.output)
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.InputsMerged.Add(float64(len(s.inputs)))
	}
	return &s.summary, nil
}

// withInput opens the named input, runs fn and closes the input. Errors are
// annotated with the input's name.
func (s *session) withInput(path string, fn func(r *logfile.Reader) error) error {
	r, err := logfile.Open(s.opts.FS, path)
	if err != nil {
		return errors.Wrap(err, "merge: opening input")
	}
	err = fn(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "merge: input %s", path)
	}
	return nil
}

// collectMetadata reads the job, exe, mount table, name table and segment
// index of every input.
func (s *session) collectMetadata() error {
	s.names = logfile.NameTable{}
	s.segments = make([][]logfile.SegmentInfo, len(s.inputs))
	for i, path := range s.inputs {
		err := s.withInput(path, func(r *logfile.Reader) error {
			job, err := r.ReadJob()
			if err != nil {
				return err
			}
			if job.ShutdownRecorded() {
				return errors.Mark(
					errors.New("job metadata records an incomplete shutdown"),
					base.ErrCorruptInput)
			}
			if i == 0 {
				s.job = job
				if s.exe, err = r.ReadExe(); err != nil {
					return err
				}
				if s.mounts, err = r.ReadMounts(); err != nil {
					return err
				}
			} else {
				s.job.StartTime = min(s.job.StartTime, job.StartTime)
				s.job.EndTime = max(s.job.EndTime, job.EndTime)
			}
			names, err := r.ReadNameTable()
			if err != nil {
				return err
			}
			if err := s.names.Merge(names); err != nil {
				return err
			}
			s.segments[i] = r.Modules()
			return nil
		})
		if err != nil {
			return err
		}
	}
	s.summary = Summary{
		Output: s.output,
		Inputs: len(s.inputs),
		Job:    s.job,
		Names:  len(s.names),
	}
	return nil
}

func (s *session) openOutput() error {
	w, err := logfile.Create(s.opts.FS, s.output, s.opts.writerOptions())
	if err != nil {
		return errors.Wrap(err, "merge: creating output")
	}
	s.w = w
	if err := w.WriteJob(&s.job); err != nil {
		return err
	}
	if err := w.WriteExe(s.exe); err != nil {
		return err
	}
	if err := w.WriteMounts(s.mounts); err != nil {
		return err
	}
	return w.WriteNameTable(s.names)
}

// segment returns the segment of the given module in input i.
func (s *session) segment(i int, id base.ModuleID) (logfile.SegmentInfo, bool) {
	for _, seg := range s.segments[i] {
		if seg.Module == id {
			return seg, true
		}
	}
	return logfile.SegmentInfo{}, false
}

// forEachRecord streams every record of mod held by input i through fn.
func (s *session) forEachRecord(
	i int, mod modules.Module, fn func(rec *modules.Buffer) error,
) error {
	if _, ok := s.segment(i, mod.ID()); !ok {
		return nil
	}
	return s.withInput(s.inputs[i], func(r *logfile.Reader) error {
		seg, err := r.OpenSegment(mod.ID())
		if err != nil {
			return err
		}
		defer seg.Close()
		var buf modules.Buffer
		for {
			err := mod.GetRecord(seg, &buf)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := fn(&buf); err != nil {
				return err
			}
		}
	})
}

func (s *session) mergeModule(mod modules.Module) error {
	var version uint32
	for i := range s.inputs {
		if seg, ok := s.segment(i, mod.ID()); ok {
			version = seg.Version
			break
		}
	}
	if version == 0 {
		return nil
	}
	if s.upgrade {
		version = mod.CurrentVersion()
	}
	ms := ModuleSummary{Module: mod.ID(), Name: mod.Name(), Version: version}

	var shared *sharedTable
	if s.sharedReduction {
		shared = &sharedTable{}
		shared.init(mod)
		defer shared.close()
		for i := range s.inputs {
			err := s.forEachRecord(i, mod, func(rec *modules.Buffer) error {
				shared.add(rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		shared.prune(s.job.NProcs)
	}

	out, err := s.w.BeginModule(mod.ID(), version)
	if err != nil {
		return err
	}
	if shared != nil {
		for _, r := range shared.sorted() {
			if err := mod.PutRecord(out, &r.agg, version); err != nil {
				return errors.Wrapf(err, "merge: writing aggregate of record %s", r.agg.ID())
			}
			ms.SharedRecords++
		}
	}
	for i := range s.inputs {
		err := s.forEachRecord(i, mod, func(rec *modules.Buffer) error {
			ms.RecordsRead++
			if shared != nil && shared.contains(rec.ID()) {
				ms.RecordsSkipped++
				return nil
			}
			return mod.PutRecord(out, rec, version)
		})
		if err != nil {
			return err
		}
	}
	ms.RecordsWritten = out.Records()
	s.summary.Modules = append(s.summary.Modules, ms)
	s.opts.Metrics.record(&ms)
	s.opts.Logger.Infof("merge: module %s: %d records read, %d shared, %d written",
		mod.Name(), ms.RecordsRead, ms.SharedRecords, ms.RecordsWritten)
	return nil
}
