package rbac_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/efortin/cronjob-scheduler/pkg/rbac"
)

// reviewReactor answers SelfSubjectAccessReviews, denying the listed verbs
func reviewReactor(denied ...string) k8stesting.ReactionFunc {
	return func(action k8stesting.Action) (bool, runtime.Object, error) {
		createAction := action.(k8stesting.CreateAction)
		sar := createAction.GetObject().(*authv1.SelfSubjectAccessReview)
		allowed := true
		for _, verb := range denied {
			if sar.Spec.ResourceAttributes.Verb == verb {
				allowed = false
			}
		}
		sar.Status = authv1.SubjectAccessReviewStatus{Allowed: allowed}
		return true, sar, nil
	}
}

var _ = Describe("RBAC Verification", func() {
	Describe("GetRequiredPermissions", func() {
		It("should require create, get, list and delete on cronjobs.batch", func() {
			permissions := rbac.GetRequiredPermissions("jobs")

			verbs := make([]string, 0, len(permissions))
			for _, perm := range permissions {
				Expect(perm.APIGroup).To(Equal("batch"))
				Expect(perm.Resource).To(Equal("cronjobs"))
				Expect(perm.Namespace).To(Equal("jobs"))
				verbs = append(verbs, perm.Verb)
			}
			Expect(verbs).To(ConsistOf("create", "get", "list", "delete"))
		})
	})

	Describe("CheckPermission", func() {
		It("should return allowed for permitted actions", func() {
			clientset := fake.NewSimpleClientset()
			clientset.PrependReactor("create", "selfsubjectaccessreviews", reviewReactor())

			perm := rbac.RequiredPermission{APIGroup: "batch", Resource: "cronjobs", Verb: "create", Namespace: "jobs"}
			allowed, err := rbac.CheckPermission(context.Background(), clientset, perm)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("should return denied for forbidden actions", func() {
			clientset := fake.NewSimpleClientset()
			clientset.PrependReactor("create", "selfsubjectaccessreviews", reviewReactor("delete"))

			perm := rbac.RequiredPermission{APIGroup: "batch", Resource: "cronjobs", Verb: "delete", Namespace: "jobs"}
			allowed, err := rbac.CheckPermission(context.Background(), clientset, perm)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("VerifyPermissions", func() {
		It("should succeed when every verb is granted", func() {
			clientset := fake.NewSimpleClientset()
			clientset.PrependReactor("create", "selfsubjectaccessreviews", reviewReactor())

			Expect(rbac.VerifyPermissions(context.Background(), clientset, "jobs")).To(Succeed())
		})

		It("should list every missing permission", func() {
			clientset := fake.NewSimpleClientset()
			clientset.PrependReactor("create", "selfsubjectaccessreviews", reviewReactor("delete", "list"))

			err := rbac.VerifyPermissions(context.Background(), clientset, "jobs")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("delete cronjobs.batch (namespace=jobs)"))
			Expect(err.Error()).To(ContainSubstring("list cronjobs.batch (namespace=jobs)"))
			Expect(err.Error()).NotTo(ContainSubstring("create cronjobs"))
		})

		It("should fail when the review itself fails", func() {
			clientset := fake.NewSimpleClientset()
			clientset.PrependReactor("create", "selfsubjectaccessreviews", func(k8stesting.Action) (bool, runtime.Object, error) {
				return true, nil, errors.New("unauthorized")
			})

			err := rbac.VerifyPermissions(context.Background(), clientset, "jobs")
			Expect(err).To(MatchError(ContainSubstring("unauthorized")))
		})
	})

	Describe("VerifyCronJobAPI", func() {
		var discovery *fakediscovery.FakeDiscovery

		BeforeEach(func() {
			discovery = fake.NewSimpleClientset().Discovery().(*fakediscovery.FakeDiscovery)
			discovery.Resources = []*metav1.APIResourceList{
				{
					GroupVersion: "batch/v1",
					APIResources: []metav1.APIResource{
						{Name: "jobs", Namespaced: true, Kind: "Job"},
						{Name: "cronjobs", Namespaced: true, Kind: "CronJob"},
					},
				},
				{
					GroupVersion: "apps/v1",
					APIResources: []metav1.APIResource{
						{Name: "deployments", Namespaced: true, Kind: "Deployment"},
					},
				},
			}
		})

		It("should succeed when cronjobs are served", func() {
			Expect(rbac.VerifyCronJobAPI(context.Background(), discovery, "batch/v1")).To(Succeed())
		})

		It("should fail when the group version is not served", func() {
			err := rbac.VerifyCronJobAPI(context.Background(), discovery, "batch/v1beta1")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("batch/v1beta1"))
		})

		It("should fail when the group version has no cronjobs", func() {
			err := rbac.VerifyCronJobAPI(context.Background(), discovery, "apps/v1")
			Expect(err).To(MatchError(ContainSubstring("does not serve cronjobs")))
		})

		It("should honour a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(rbac.VerifyCronJobAPI(ctx, discovery, "batch/v1")).To(MatchError(context.Canceled))
		})
	})
})
