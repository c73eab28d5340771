package metrics

import (
	"sort"

	"buildwatch/internal/models"
)

// FailureCount is the number of failures attributed to a job.
type FailureCount struct {
	Count int    `json:"count"`
	Job   string `json:"job"`
}

// TopFailingJobs ranks the jobs responsible for failed builds. A failed build with
// no sub-builds is attributed to the pipeline itself.
func TopFailingJobs(builds models.BuildCollection, pipelineName string) []FailureCount {
	tally := make(map[string]int)
	for _, b := range builds {
		if b.Result != models.ResultFailure {
			continue
		}
		tree := models.ResolveJobTree(b)
		if tree.Kind == models.JobLeaf {
			tally[pipelineName]++
			continue
		}
		countFailures(tree, tally)
	}

	out := make([]FailureCount, 0, len(tally))
	for job, count := range tally {
		out = append(out, FailureCount{Count: count, Job: job})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Job > out[j].Job
	})
	return out
}

// FailureTally adds the failing leaf jobs of a single build to acc.
func FailureTally(b models.Build, acc map[string]int) map[string]int {
	if acc == nil {
		acc = make(map[string]int)
	}
	countFailures(models.ResolveJobTree(b), acc)
	return acc
}

func countFailures(node models.JobNode, acc map[string]int) {
	if node.Result != models.ResultFailure {
		return
	}
	if node.Kind == models.JobAggregate {
		for _, child := range node.Children {
			countFailures(child, acc)
		}
		return
	}
	// a leaf without a job name cannot be attributed
	if node.JobName == "" {
		return
	}
	acc[node.JobName]++
}
