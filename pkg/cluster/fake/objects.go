// Copyright 2026 The Okteto Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fake

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"
)

// Pod returns a running and ready pod with the given containers
func Pod(namespace, name string, containers ...string) *apiv1.Pod {
	pod := &apiv1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			UID:       types.UID(fmt.Sprintf("uid-%s-%s", namespace, name)),
		},
		Status: apiv1.PodStatus{
			Phase: apiv1.PodRunning,
			Conditions: []apiv1.PodCondition{
				{Type: apiv1.PodReady, Status: apiv1.ConditionTrue},
			},
		},
	}
	for _, c := range containers {
		pod.Spec.Containers = append(pod.Spec.Containers, apiv1.Container{Name: c})
		pod.Status.ContainerStatuses = append(pod.Status.ContainerStatuses, apiv1.ContainerStatus{Name: c, Ready: true})
	}
	return pod
}

// PendingPod returns a pod that was scheduled but is not running yet
func PendingPod(namespace, name string, containers ...string) *apiv1.Pod {
	pod := Pod(namespace, name, containers...)
	pod.Status = apiv1.PodStatus{Phase: apiv1.PodPending}
	return pod
}

// Deployment returns a deployment, its current replica set and one pod per name.
// Pods listed in notReady are pending.
func Deployment(namespace, name string, podNames []string, notReady ...string) []runtime.Object {
	labels := map[string]string{"app": name}
	d := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			UID:       types.UID("deployment-" + name),
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(int32(len(podNames))),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
		},
	}
	rs := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:            name + "-5d8f9c",
			Namespace:       namespace,
			UID:             types.UID("replicaset-" + name),
			Labels:          labels,
			OwnerReferences: []metav1.OwnerReference{{UID: d.UID, Name: name, Kind: "Deployment"}},
		},
	}
	result := []runtime.Object{d, rs}
	for _, podName := range podNames {
		var pod *apiv1.Pod
		if contains(notReady, podName) {
			pod = PendingPod(namespace, podName, name)
		} else {
			pod = Pod(namespace, podName, name)
		}
		pod.Labels = labels
		pod.OwnerReferences = []metav1.OwnerReference{{UID: rs.UID, Name: rs.Name, Kind: "ReplicaSet"}}
		result = append(result, pod)
	}
	return result
}

// Job returns a job and one pod per name
func Job(namespace, name string, podNames ...string) []runtime.Object {
	j := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			UID:       types.UID("job-" + name),
		},
		Spec: batchv1.JobSpec{
			Parallelism: ptr.To(int32(len(podNames))),
		},
	}
	result := []runtime.Object{j}
	for _, podName := range podNames {
		pod := Pod(namespace, podName, name)
		pod.Labels = map[string]string{"job-name": name}
		pod.OwnerReferences = []metav1.OwnerReference{{UID: j.UID, Name: name, Kind: "Job"}}
		result = append(result, pod)
	}
	return result
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
